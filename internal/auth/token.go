package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/reporting-auth/internal/domain"
)

// Typed verification failures. Callers that need to distinguish the failure
// mode match with errors.Is; the request gate treats them all as a redirect.
var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenSignature = errors.New("token signature mismatch")
	ErrTokenInvalid   = errors.New("token invalid")
)

// ErrEmptySecret rejects construction without a signing secret.
var ErrEmptySecret = errors.New("signing secret must not be empty")

// TokenManager issues and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a manager. An empty secret is refused outright
// rather than degrading to unsigned operation.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = 168 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}, nil
}

// Claims describes the session token payload.
type Claims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issue signs a session token for the given identity.
func (tm *TokenManager) Issue(userID, email string, role domain.Role) (string, domain.Session, error) {
	now := time.Now()
	session := domain.Session{
		UserID:    userID,
		Email:     email,
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: now.Add(tm.ttl),
	}

	claims := &Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", domain.Session{}, err
	}
	return signed, session, nil
}

// Parse verifies signature, structure and expiry and returns the claims.
// Malformed tokens are rejected, never partially trusted.
func (tm *TokenManager) Parse(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return tm.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", ErrTokenSignature, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if _, ok := domain.ParseRole(string(claims.Role)); !ok {
		return nil, fmt.Errorf("%w: unknown role claim", ErrTokenInvalid)
	}
	return claims, nil
}

// TTL exposes the configured validity window for cookie max-age alignment.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}
