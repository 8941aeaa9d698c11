package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/reporting-auth/internal/auth"
)

// PortalHandler serves the role-scoped areas behind the request gate and the
// two redirect destinations. Dashboard content lives elsewhere; these
// endpoints only confirm who got through.
type PortalHandler struct{}

// NewPortalHandler constructs the handler.
func NewPortalHandler() *PortalHandler {
	return &PortalHandler{}
}

// Area responds for any protected portal path. The gate has already
// verified the session and matched the role by the time this runs.
func (h *PortalHandler) Area(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		// Only reachable when a route is registered outside the policy.
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	return c.JSON(fiber.Map{
		"path": c.Path(),
		"user": fiber.Map{
			"id":    principal.UserID,
			"email": principal.Email,
			"role":  principal.Role,
		},
	})
}

// LoginPage is the destination for unauthenticated redirects.
func (h *PortalHandler) LoginPage(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "authentication required"})
}

// Unauthorized is the destination for authenticated callers whose role does
// not match the requested area. Distinct from the login page so users are
// not misled into re-entering credentials.
func (h *PortalHandler) Unauthorized(c *fiber.Ctx) error {
	return c.Status(http.StatusForbidden).JSON(fiber.Map{
		"message": "you do not have access to this area",
	})
}
