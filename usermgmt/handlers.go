package usermgmt

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"amazobank.com/crm/auth"
	"amazobank.com/crm/auth/fiberauth"
	"amazobank.com/crm/pg/model"
)

// Handlers exposes Service over HTTP.
type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// Health handles GET /health
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "UP"})
}

// ListUsers handles GET /api/users?role=Agent&includeDisabled=true
func (h *Handlers) ListUsers(c *fiber.Ctx) error {
	actor, _ := fiberauth.GetPrincipal(c)
	opts := model.ListOptions{
		Role:            auth.Role(c.Query("role")),
		IncludeDisabled: c.QueryBool("includeDisabled", false),
	}
	users, err := h.service.ListUsers(c.UserContext(), actor, opts)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(users)
}

// CreateUser handles POST /api/users
func (h *Handlers) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	actor, _ := fiberauth.GetPrincipal(c)
	created, err := h.service.CreateUser(c.UserContext(), actor, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(created)
}

// UpdateUser handles PATCH /api/users/:id
func (h *Handlers) UpdateUser(c *fiber.Ctx) error {
	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	actor, _ := fiberauth.GetPrincipal(c)
	user, err := h.service.UpdateUser(c.UserContext(), actor, c.Params("id"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(user)
}

// DeleteUser handles DELETE /api/users/:id
func (h *Handlers) DeleteUser(c *fiber.Ctx) error {
	actor, _ := fiberauth.GetPrincipal(c)
	if err := h.service.DisableUser(c.UserContext(), actor, c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{
		"result": "err",
		"error":  msg,
		"code":   "VALIDATION_FAILED",
	})
}

func writeError(c *fiber.Ctx, err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"result": "err",
			"error":  "Validation failed",
			"code":   "VALIDATION_FAILED",
			"fields": verr.Fields,
		})
	case errors.Is(err, model.ErrUserNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"result": "err",
			"error":  "User not found",
			"code":   "USER_NOT_FOUND",
		})
	case errors.Is(err, model.ErrEmailTaken):
		return c.Status(http.StatusConflict).JSON(fiber.Map{
			"result": "err",
			"error":  "Email already in use",
			"code":   "EMAIL_TAKEN",
		})
	case errors.Is(err, model.ErrUserExists):
		return c.Status(http.StatusConflict).JSON(fiber.Map{
			"result": "err",
			"error":  "User already exists",
			"code":   "USER_EXISTS",
		})
	default:
		return fiberauth.WriteError(c, err)
	}
}
