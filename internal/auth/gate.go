package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/reporting-auth/internal/domain"
	"github.com/spec-kit/reporting-auth/internal/observability"
)

const principalKey = "auth_principal"

// Principal represents the verified caller stored in request locals.
type Principal struct {
	UserID string
	Email  string
	Role   domain.Role
}

// Gate intercepts inbound requests and enforces the path-to-role policy
// before handlers run. Each request is evaluated independently; the gate
// keeps no cross-request state.
type Gate struct {
	tokens  *TokenManager
	policy  Policy
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewGate constructs the request gate.
func NewGate(tokens *TokenManager, policy Policy, logger *zap.Logger, metrics *observability.Metrics) *Gate {
	return &Gate{tokens: tokens, policy: policy, logger: logger, metrics: metrics}
}

// Handle walks the per-request decision tree: public prefix, policy match,
// cookie extraction, token verification, role check.
func (g *Gate) Handle(c *fiber.Ctx) error {
	path := c.Path()

	if g.policy.IsPublic(path) {
		return c.Next()
	}

	rule, ok := g.policy.Match(path)
	if !ok {
		return c.Next()
	}

	token := c.Cookies("token")
	if token == "" {
		g.record(path, observability.GateRedirectLogin)
		return c.Redirect(g.policy.LoginPath, fiber.StatusFound)
	}

	claims, err := g.tokens.Parse(token)
	if err != nil {
		// Token failures are never detailed to the client.
		g.logger.Debug("session token rejected", zap.String("path", path), zap.Error(err))
		g.record(path, observability.GateRedirectLogin)
		return c.Redirect(g.policy.LoginPath, fiber.StatusFound)
	}

	if claims.Role != rule.Role {
		g.logger.Debug("role mismatch",
			zap.String("path", path),
			zap.String("required", string(rule.Role)),
			zap.String("actual", string(claims.Role)))
		g.record(path, observability.GateRedirectUnauthorized)
		return c.Redirect(g.policy.UnauthorizedPath, fiber.StatusFound)
	}

	c.Locals(principalKey, &Principal{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	})
	g.record(path, observability.GateAllow)
	return c.Next()
}

func (g *Gate) record(path string, decision string) {
	if g.metrics != nil {
		g.metrics.RecordGateDecision(path, decision)
	}
}

// PrincipalFromContext retrieves the caller the gate verified, if any.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
