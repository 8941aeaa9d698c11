package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/reporting-auth/internal/api/http"
	"github.com/spec-kit/reporting-auth/internal/api/http/handlers"
	"github.com/spec-kit/reporting-auth/internal/auth"
	"github.com/spec-kit/reporting-auth/internal/config"
	"github.com/spec-kit/reporting-auth/internal/events"
	"github.com/spec-kit/reporting-auth/internal/observability"
	"github.com/spec-kit/reporting-auth/internal/persistence"
	"github.com/spec-kit/reporting-auth/internal/repository"
	"github.com/spec-kit/reporting-auth/internal/service"
	"github.com/spec-kit/reporting-auth/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	limiter := service.NewRedisLoginLimiter(redis.Client, cfg.Throttle)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
		Tokens:            tokens,
		Limiter:           limiter,
		Dispatcher:        dispatcher,
		Logger:            logger,
	})

	auditService := service.NewAuditService(dispatcher, logger)
	worker.StartAuditWorker(auditService)

	gate := auth.NewGate(tokens, auth.DefaultPolicy(), logger, metrics)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:   handlers.NewAuthHandler(authService, metrics, cfg.App.Production()),
		Portal: handlers.NewPortalHandler(),
		Gate:   gate,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
