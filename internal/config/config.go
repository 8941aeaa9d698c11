package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Throttle ThrottleConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	TokenTTLHours           int
	PasswordResetTTLMinutes int
	BcryptCost              int
}

// ThrottleConfig bounds repeated login attempts per account.
type ThrottleConfig struct {
	MaxAttempts   int
	WindowSeconds int
}

// ErrMissingJWTSecret is returned when no signing secret is configured.
// Issuing or verifying tokens without a secret is a startup-fatal condition;
// the service never falls back to a default secret.
var ErrMissingJWTSecret = errors.New("AUTH_JWT_SECRET is required")

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		return nil, ErrMissingJWTSecret
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "reporting-auth"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               secret,
			TokenTTLHours:           getEnvAsInt("AUTH_TOKEN_TTL_HOURS", 168),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Throttle: ThrottleConfig{
			MaxAttempts:   getEnvAsInt("LOGIN_MAX_ATTEMPTS", 10),
			WindowSeconds: getEnvAsInt("LOGIN_ATTEMPT_WINDOW_SECONDS", 300),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Production reports whether the service runs with production hardening
// such as Secure session cookies.
func (a AppConfig) Production() bool {
	return a.Env == "production"
}

// TokenTTL returns the session token validity window.
func (c AuthConfig) TokenTTL() time.Duration {
	if c.TokenTTLHours <= 0 {
		return 168 * time.Hour
	}
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// ResetTTL returns the password reset token validity window.
func (c AuthConfig) ResetTTL() time.Duration {
	return time.Duration(c.PasswordResetTTLMinutes) * time.Minute
}

// Window returns the throttle counting window.
func (t ThrottleConfig) Window() time.Duration {
	return time.Duration(t.WindowSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
