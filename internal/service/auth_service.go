package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/reporting-auth/internal/auth"
	"github.com/spec-kit/reporting-auth/internal/config"
	"github.com/spec-kit/reporting-auth/internal/domain"
	"github.com/spec-kit/reporting-auth/internal/events"
	"github.com/spec-kit/reporting-auth/internal/repository"
)

// Sentinel errors surfaced to handlers. Unknown email and wrong password
// both map to ErrInvalidCredentials so responses never reveal whether an
// account exists; the distinction is a logging-only detail.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrResetTokenInvalid  = errors.New("reset token expired or used")
)

// AuthService coordinates registration, login and password reset flows.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	tokens     *auth.TokenManager
	limiter    LoginLimiter
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
}

// AuthDependencies encapsulates collaborator requirements for the service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	Tokens            *auth.TokenManager
	Limiter           LoginLimiter
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	limiter := deps.Limiter
	if limiter == nil {
		limiter = NoopLoginLimiter{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		resets:     deps.PasswordResetRepo,
		tokens:     deps.Tokens,
		limiter:    limiter,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
		resetTTL:   cfg.ResetTTL(),
	}
}

// Register creates a new account. The requested role passes through the
// self-registration allow-list: admin and unrecognized values fall back to
// the lowest-privilege role.
func (s *AuthService) Register(ctx context.Context, name, email, password, requestedRole string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.SelfRegisterRole(requestedRole),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventUserRegistered, email, events.UserRegisteredPayload{
		UserID: user.ID,
		Role:   string(user.Role),
	})
	return user, nil
}

// Login authenticates a user and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, domain.Session, error) {
	email = domain.NormalizeEmail(email)

	allowed, err := s.limiter.Allow(ctx, email)
	if err != nil {
		// Fail open: a broken throttle must not lock everyone out.
		s.logger.Warn("login limiter unavailable", zap.Error(err))
	} else if !allowed {
		s.publish(ctx, events.EventLoginThrottled, email, nil)
		return nil, "", domain.Session{}, ErrTooManyAttempts
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Debug("login failed", zap.String("email", email), zap.String("reason", "unknown email"))
			s.publish(ctx, events.EventLoginFailed, email, events.LoginFailedPayload{Reason: "unknown email"})
			return nil, "", domain.Session{}, ErrInvalidCredentials
		}
		return nil, "", domain.Session{}, err
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		s.logger.Debug("login failed", zap.String("email", email), zap.String("reason", "password mismatch"))
		s.publish(ctx, events.EventLoginFailed, email, events.LoginFailedPayload{Reason: "password mismatch"})
		return nil, "", domain.Session{}, ErrInvalidCredentials
	}

	token, session, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", domain.Session{}, err
	}

	if err := s.limiter.Reset(ctx, email); err != nil {
		s.logger.Warn("login limiter reset failed", zap.Error(err))
	}
	s.publish(ctx, events.EventLoginSucceeded, email, events.LoginSucceededPayload{
		UserID:    user.ID,
		Role:      string(user.Role),
		ExpiresAt: session.ExpiresAt,
	})
	return user, token, session, nil
}

// RequestPasswordReset persists a single-use reset token for the email.
// Callers must not reveal whether the email exists; an unknown email returns
// pgx.ErrNoRows for the handler to swallow.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*repository.PasswordResetToken, error) {
	email = domain.NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	token := &repository.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventPasswordResetRequested, email, nil)
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrResetTokenInvalid
		}
		return err
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return ErrResetTokenInvalid
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
		return err
	}
	s.publish(ctx, events.EventPasswordChanged, user.Email, nil)
	return nil
}

// TokenManager exposes the underlying token manager for the request gate.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, email string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Email:     email,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
