package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/reporting-auth/internal/domain"
)

func TestNewTokenManagerRejectsEmptySecret(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestIssueParseRoundTrip(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	token, session, err := tm.Issue("user-1", "a@x.com", domain.RoleStaff)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, "user-1", session.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, 5*time.Second)

	claims, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, domain.RoleStaff, claims.Role)

	// Verification is idempotent.
	again, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, claims.Subject, again.Subject)
	assert.Equal(t, claims.Email, again.Email)
	assert.Equal(t, claims.Role, again.Role)
	assert.Equal(t, claims.ExpiresAt.Time, again.ExpiresAt.Time)
}

func TestParseRejectsExpired(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	expired := signToken(t, "test-secret", jwt.SigningMethodHS256, &Claims{
		Email: "a@x.com",
		Role:  domain.RoleStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err = tm.Parse(expired)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issuer, err := NewTokenManager("secret-a", time.Hour)
	require.NoError(t, err)
	verifier, err := NewTokenManager("secret-b", time.Hour)
	require.NoError(t, err)

	token, _, err := issuer.Issue("user-1", "a@x.com", domain.RoleAdmin)
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	require.ErrorIs(t, err, ErrTokenSignature)
}

func TestParseRejectsMalformed(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	for _, raw := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		_, err := tm.Parse(raw)
		assert.ErrorIs(t, err, ErrTokenMalformed, "input %q", raw)
	}
}

func TestParseRejectsUnexpectedMethod(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	token := signToken(t, "test-secret", jwt.SigningMethodHS512, &Claims{
		Email: "a@x.com",
		Role:  domain.RoleStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err = tm.Parse(token)
	require.Error(t, err)
}

func TestParseRejectsUnknownRoleClaim(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	token := signToken(t, "test-secret", jwt.SigningMethodHS256, &Claims{
		Email: "a@x.com",
		Role:  domain.Role("superuser"),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err = tm.Parse(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims *Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
