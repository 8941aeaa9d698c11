package domain

import (
	"strings"
	"time"
)

// NormalizeEmail canonicalizes an email for use as a case-insensitive
// identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Session describes an issued session token. Sessions are never persisted;
// expiry is the only termination mechanism.
type Session struct {
	UserID    string
	Email     string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}
