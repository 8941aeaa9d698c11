package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/reporting-auth/internal/config"
	"github.com/spec-kit/reporting-auth/internal/domain"
)

// LoginLimiter bounds repeated login attempts per account within a fixed
// window. It only throttles; it does not authenticate.
type LoginLimiter interface {
	// Allow records an attempt and reports whether it may proceed.
	Allow(ctx context.Context, email string) (bool, error)
	// Reset clears the attempt counter after a successful login.
	Reset(ctx context.Context, email string) error
}

// NoopLoginLimiter never throttles. Used when Redis is not configured.
type NoopLoginLimiter struct{}

func (NoopLoginLimiter) Allow(ctx context.Context, email string) (bool, error) { return true, nil }
func (NoopLoginLimiter) Reset(ctx context.Context, email string) error         { return nil }

type redisLoginLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewRedisLoginLimiter builds a fixed-window counter limiter on Redis.
func NewRedisLoginLimiter(client *redis.Client, cfg config.ThrottleConfig) LoginLimiter {
	if client == nil || cfg.MaxAttempts <= 0 {
		return NoopLoginLimiter{}
	}
	return &redisLoginLimiter{
		client:      client,
		maxAttempts: cfg.MaxAttempts,
		window:      cfg.Window(),
	}
}

func (l *redisLoginLimiter) key(email string) string {
	return fmt.Sprintf("login_attempts:%s", domain.NormalizeEmail(email))
}

func (l *redisLoginLimiter) Allow(ctx context.Context, email string) (bool, error) {
	key := l.key(email)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return true, err
		}
	}
	return count <= int64(l.maxAttempts), nil
}

func (l *redisLoginLimiter) Reset(ctx context.Context, email string) error {
	return l.client.Del(ctx, l.key(email)).Err()
}
