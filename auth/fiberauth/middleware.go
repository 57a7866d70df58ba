// Package fiberauth enforces bearer authentication and portal requirements on
// Fiber routes.
package fiberauth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"amazobank.com/crm/auth"
)

const principalKey = "principal"

// Verifier turns a bearer token into a principal.
type Verifier interface {
	Verify(token string) (*auth.Principal, error)
}

// Config wires the middleware. Validator may be nil.
type Config struct {
	Verifier  Verifier
	Validator auth.UserValidator
}

// RequireAuth validates the bearer token and checks that the user is still
// active before storing the principal in the request locals.
func RequireAuth(cfg Config) fiber.Handler {
	validator := cfg.Validator
	if validator == nil {
		validator = &auth.NoOpUserValidator{}
	}

	return func(c *fiber.Ctx) error {
		token, err := ExtractBearer(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return WriteError(c, err)
		}

		principal, err := cfg.Verifier.Verify(token)
		if err != nil {
			return WriteError(c, err)
		}

		if err := validator.ValidateUserActive(c.UserContext(), principal.ID); err != nil {
			return WriteError(c, err)
		}

		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// RequirePortal rejects principals whose role does not satisfy req. It must
// run after RequireAuth.
func RequirePortal(req auth.Requirement) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := GetPrincipal(c)
		if !ok {
			return WriteError(c, auth.ErrMissingToken)
		}
		if auth.Authorize(principal, req) != auth.Allow {
			return WriteError(c, auth.ErrInsufficientRole)
		}
		return c.Next()
	}
}

// RequireAdmin admits Admin and SuperAdmin principals.
func RequireAdmin() fiber.Handler {
	return RequirePortal(auth.RequireAdminPortal)
}

// GetPrincipal returns the principal stored by RequireAuth.
func GetPrincipal(c *fiber.Ctx) (*auth.Principal, bool) {
	p, ok := c.Locals(principalKey).(*auth.Principal)
	return p, ok && p != nil
}

// ExtractBearer returns the token from an Authorization header value.
func ExtractBearer(header string) (string, error) {
	if header == "" {
		return "", auth.ErrMissingToken
	}
	scheme, token, found := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", auth.ErrInvalidToken
	}
	return token, nil
}

// WriteError renders err in the API error envelope. A *fiber.Error is
// returned unchanged for the app error handler; any other non-auth error is
// logged and written as a 500 without its details.
func WriteError(c *fiber.Ctx, err error) error {
	authErr, ok := auth.AsAuthError(err)
	if !ok {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return err
		}
		log.Errorw("request failed", "path", c.Path(), "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"result": "err",
			"error":  "internal error",
		})
	}

	if authErr.Code >= http.StatusInternalServerError {
		log.Errorw("auth failure", "path", c.Path(), "code", authErr.Type, "error", err)
	} else {
		log.Infow("auth rejected", "path", c.Path(), "code", authErr.Type)
	}
	return c.Status(authErr.Code).JSON(fiber.Map{
		"result": "err",
		"error":  authErr.Message,
		"code":   authErr.Type,
	})
}
