package usermgmt

import (
	"github.com/gofiber/fiber/v2"

	"amazobank.com/crm/auth/fiberauth"
)

// SetupRoutes mounts the health check and the user API on app. Every user
// route needs a verified token with admin-portal access.
func SetupRoutes(app *fiber.App, h *Handlers, authCfg fiberauth.Config) {
	app.Get("/health", h.Health)

	users := app.Group("/api/users", fiberauth.RequireAuth(authCfg), fiberauth.RequireAdmin())
	users.Get("/", h.ListUsers)
	users.Post("/", h.CreateUser)
	users.Patch("/:id", h.UpdateUser)
	users.Delete("/:id", h.DeleteUser)
}
