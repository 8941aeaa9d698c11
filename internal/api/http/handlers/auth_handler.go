package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/reporting-auth/internal/api/dto"
	"github.com/spec-kit/reporting-auth/internal/observability"
	"github.com/spec-kit/reporting-auth/internal/service"
	apperrors "github.com/spec-kit/reporting-auth/pkg/util"
)

const sessionCookieName = "token"

// AuthHandler exposes the login, registration and password reset endpoints.
type AuthHandler struct {
	auth          *service.AuthService
	metrics       *observability.Metrics
	secureCookies bool
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authService *service.AuthService, metrics *observability.Metrics, secureCookies bool) *AuthHandler {
	return &AuthHandler{auth: authService, metrics: metrics, secureCookies: secureCookies}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(dto.RegisterResponse{
			Success: false,
			Error:   "invalid payload",
		})
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.Status(http.StatusBadRequest).JSON(dto.RegisterResponse{
			Success: false,
			Error:   "name, email and password are required",
		})
	}

	user, err := h.auth.Register(c.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			return c.Status(http.StatusBadRequest).JSON(dto.RegisterResponse{
				Success: false,
				Error:   err.Error(),
			})
		}
		return c.Status(http.StatusInternalServerError).JSON(dto.RegisterResponse{
			Success: false,
			Error:   "registration failed",
		})
	}

	return c.Status(http.StatusCreated).JSON(dto.RegisterResponse{
		Success: true,
		UserID:  user.ID,
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, session, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			h.metrics.RecordLoginOutcome("invalid_credentials")
			return apperrors.NewUnauthorized("invalid credentials")
		case errors.Is(err, service.ErrTooManyAttempts):
			h.metrics.RecordLoginOutcome("throttled")
			return apperrors.NewTooManyRequests("too many login attempts")
		default:
			return apperrors.NewInternalError(err)
		}
	}

	h.metrics.RecordLoginOutcome("success")

	h.setSessionCookie(c, token, session.ExpiresAt)

	return c.JSON(dto.LoginResponse{
		Success: true,
		User: dto.UserPayload{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  string(user.Role),
		},
	})
}

// Logout handles POST /api/auth/logout by expiring the session cookie.
// Tokens themselves cannot be revoked; expiry is the only termination.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.secureCookies,
	})
	return c.JSON(fiber.Map{"success": true})
}

// RequestPasswordReset handles POST /api/auth/password/reset/request.
// The response is identical whether or not the email exists.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" {
		return apperrors.NewValidationError("email required", nil)
	}

	if _, err := h.auth.RequestPasswordReset(c.Context(), req.Email); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewInternalError(err)
	}

	return c.JSON(fiber.Map{"success": true})
}

// ConfirmPasswordReset handles POST /api/auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Token == "" || req.NewPassword == "" {
		return apperrors.NewValidationError("token and newPassword required", nil)
	}

	if err := h.auth.ConfirmPasswordReset(c.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, service.ErrResetTokenInvalid) {
			return apperrors.NewValidationError("reset token expired or used", nil)
		}
		return apperrors.NewInternalError(err)
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.secureCookies,
	})
}
