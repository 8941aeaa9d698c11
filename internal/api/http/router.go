package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/reporting-auth/internal/api/http/handlers"
	"github.com/spec-kit/reporting-auth/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Auth   *handlers.AuthHandler
	Portal *handlers.PortalHandler
	Gate   *auth.Gate
}

// RegisterRoutes wires HTTP routes. The gate runs before every route so the
// path policy covers the portal areas regardless of handler registration.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Use(cfg.Gate.Handle)

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/api/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	// Redirect destinations used by the gate.
	app.Get("/auth/login", cfg.Portal.LoginPage)
	app.Get("/unauthorized", cfg.Portal.Unauthorized)

	// Role-scoped areas. Access control lives in the gate's path policy,
	// not in per-route middleware.
	for _, prefix := range []string{"/leader", "/staff", "/supervisor", "/admin"} {
		app.Get(prefix, cfg.Portal.Area)
		app.Get(prefix+"/*", cfg.Portal.Area)
	}
}
