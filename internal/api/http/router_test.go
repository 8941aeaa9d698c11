package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/reporting-auth/internal/api/http/handlers"
	"github.com/spec-kit/reporting-auth/internal/auth"
	"github.com/spec-kit/reporting-auth/internal/config"
	"github.com/spec-kit/reporting-auth/internal/domain"
	"github.com/spec-kit/reporting-auth/internal/observability"
	"github.com/spec-kit/reporting-auth/internal/persistence"
	"github.com/spec-kit/reporting-auth/internal/repository"
	"github.com/spec-kit/reporting-auth/internal/service"
)

type memoryUserRepo struct {
	users map[string]*domain.User
}

func (m *memoryUserRepo) Create(ctx context.Context, user *domain.User) error {
	m.users[domain.NormalizeEmail(user.Email)] = user
	return nil
}

func (m *memoryUserRepo) Update(ctx context.Context, user *domain.User) error {
	m.users[domain.NormalizeEmail(user.Email)] = user
	return nil
}

func (m *memoryUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, ok := m.users[domain.NormalizeEmail(email)]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

type memoryResetRepo struct {
	tokens map[string]*repository.PasswordResetToken
}

func (m *memoryResetRepo) Create(ctx context.Context, token *repository.PasswordResetToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *memoryResetRepo) GetByToken(ctx context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	token, ok := m.tokens[tokenStr]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return token, nil
}

func (m *memoryResetRepo) MarkUsed(ctx context.Context, id string) error {
	for _, token := range m.tokens {
		if token.ID == id {
			now := time.Now()
			token.UsedAt = &now
		}
	}
	return nil
}

func newTestApp(t *testing.T) (*fiber.App, *memoryUserRepo) {
	t.Helper()

	tokens, err := auth.NewTokenManager("router-test-secret", 168*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	users := &memoryUserRepo{users: make(map[string]*domain.User)}
	authService := service.NewAuthService(config.AuthConfig{
		BcryptCost:              4,
		PasswordResetTTLMinutes: 30,
	}, service.AuthDependencies{
		UserRepo:          users,
		PasswordResetRepo: &memoryResetRepo{tokens: make(map[string]*repository.PasswordResetToken)},
		Tokens:            tokens,
		Logger:            zap.NewNop(),
	})

	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health: handlers.NewHealthHandler("reporting-auth", "test", &persistence.Postgres{}, &persistence.Redis{}),
		Auth:   handlers.NewAuthHandler(authService, metrics, false),
		Portal: handlers.NewPortalHandler(),
		Gate:   auth.NewGate(tokens, auth.DefaultPolicy(), logger, metrics),
	})
	return app, users
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test(%s): %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	resp.Body.Close()
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "token" {
			return cookie
		}
	}
	return nil
}

func TestRegisterAdminRoleIsDowngraded(t *testing.T) {
	app, users := newTestApp(t)

	resp := postJSON(t, app, "/api/auth/register", map[string]string{
		"name":     "Someone",
		"email":    "a@x.com",
		"password": "secret",
		"role":     "admin",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", resp.StatusCode)
	}

	var out struct {
		Success bool   `json:"success"`
		UserID  string `json:"userId"`
	}
	decodeBody(t, resp, &out)
	if !out.Success || out.UserID == "" {
		t.Fatalf("register response = %+v", out)
	}

	stored, err := users.GetByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("stored user missing: %v", err)
	}
	if stored.Role != domain.RoleLeader {
		t.Errorf("stored role = %s, want leader", stored.Role)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/api/auth/register", map[string]string{"email": "a@x.com"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	decodeBody(t, resp, &out)
	if out.Success || out.Error == "" {
		t.Errorf("response = %+v", out)
	}
}

func TestLoginSetsSessionCookieAndGateAcceptsIt(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/api/auth/register", map[string]string{
		"name":     "Someone",
		"email":    "a@x.com",
		"password": "secret",
		"role":     "staff",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	resp = postJSON(t, app, "/api/auth/login", map[string]string{
		"email":    "a@x.com",
		"password": "secret",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}

	cookie := sessionCookie(resp)
	if cookie == nil {
		t.Fatal("login response missing token cookie")
	}
	if !cookie.HttpOnly {
		t.Error("token cookie must be http-only")
	}
	if cookie.Path != "/" {
		t.Errorf("cookie path = %q, want /", cookie.Path)
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie SameSite = %v, want Lax", cookie.SameSite)
	}

	var out struct {
		Success bool `json:"success"`
		User    struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	decodeBody(t, resp, &out)
	if !out.Success || out.User.Role != "staff" || out.User.Email != "a@x.com" {
		t.Fatalf("login response = %+v", out)
	}

	// The issued cookie opens the matching role area.
	req := httptest.NewRequest(http.MethodGet, "/staff/reports", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: cookie.Value})
	areaResp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if areaResp.StatusCode != http.StatusOK {
		t.Errorf("/staff/reports with session: status = %d, want 200", areaResp.StatusCode)
	}

	// The same session on another area redirects to the unauthorized page.
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: cookie.Value})
	adminResp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if adminResp.StatusCode != http.StatusFound || adminResp.Header.Get("Location") != "/unauthorized" {
		t.Errorf("/admin with staff session: status = %d location = %q",
			adminResp.StatusCode, adminResp.Header.Get("Location"))
	}
}

func TestLoginFailureResponsesAreUniform(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/api/auth/register", map[string]string{
		"name":     "Someone",
		"email":    "a@x.com",
		"password": "secret",
	})
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	unknown := postJSON(t, app, "/api/auth/login", map[string]string{
		"email":    "nobody@x.com",
		"password": "secret",
	})
	wrong := postJSON(t, app, "/api/auth/login", map[string]string{
		"email":    "a@x.com",
		"password": "wrong",
	})

	if unknown.StatusCode != http.StatusUnauthorized || wrong.StatusCode != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d, want 401 for both", unknown.StatusCode, wrong.StatusCode)
	}

	unknownBody, _ := io.ReadAll(unknown.Body)
	wrongBody, _ := io.ReadAll(wrong.Body)
	unknown.Body.Close()
	wrong.Body.Close()
	if !bytes.Equal(unknownBody, wrongBody) {
		t.Errorf("failure bodies differ: %s vs %s", unknownBody, wrongBody)
	}
}

func TestLoginMissingFields(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/api/auth/login", map[string]string{"email": "a@x.com"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	var out struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, resp, &out)
	if out.Error.Code != "VALIDATION_FAILED" {
		t.Errorf("error code = %q", out.Error.Code)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/api/auth/logout", map[string]string{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	cookie := sessionCookie(resp)
	if cookie == nil {
		t.Fatal("logout response missing token cookie")
	}
	if cookie.Value != "" || (cookie.MaxAge >= 0 && cookie.Expires.After(time.Now())) {
		t.Errorf("logout cookie not cleared: %+v", cookie)
	}
}

func TestProtectedAreaWithoutSessionRedirectsToLogin(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/staff/reports", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/auth/login" {
		t.Errorf("status = %d location = %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}
