package auth

import (
	"strings"

	"github.com/spec-kit/reporting-auth/internal/domain"
)

// Rule binds a path prefix to the role required to enter it.
type Rule struct {
	Prefix string
	Role   domain.Role
}

// Policy is the static route policy evaluated by the gate. Rules are checked
// in order and the first matching prefix wins; paths matching no rule are
// unguarded. Public prefixes bypass the gate entirely.
type Policy struct {
	PublicPrefixes   []string
	Rules            []Rule
	LoginPath        string
	UnauthorizedPath string
}

// DefaultPolicy mirrors the portal layout: one protected area per role.
func DefaultPolicy() Policy {
	return Policy{
		PublicPrefixes: []string{"/api", "/auth", "/health", "/favicon.ico"},
		Rules: []Rule{
			{Prefix: "/leader", Role: domain.RoleLeader},
			{Prefix: "/staff", Role: domain.RoleStaff},
			{Prefix: "/supervisor", Role: domain.RoleSupervisor},
			{Prefix: "/admin", Role: domain.RoleAdmin},
		},
		LoginPath:        "/auth/login",
		UnauthorizedPath: "/unauthorized",
	}
}

// IsPublic reports whether the path bypasses the gate.
func (p Policy) IsPublic(path string) bool {
	for _, prefix := range p.PublicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Match returns the first rule whose prefix matches the path.
func (p Policy) Match(path string) (Rule, bool) {
	for _, rule := range p.Rules {
		if strings.HasPrefix(path, rule.Prefix) {
			return rule, true
		}
	}
	return Rule{}, false
}
