package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/blog-service/internal/api/http"
	"github.com/spec-kit/blog-service/internal/api/http/handlers"
	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/config"
	"github.com/spec-kit/blog-service/internal/events"
	"github.com/spec-kit/blog-service/internal/observability"
	"github.com/spec-kit/blog-service/internal/persistence"
	"github.com/spec-kit/blog-service/internal/ratelimit"
	"github.com/spec-kit/blog-service/internal/repository"
	"github.com/spec-kit/blog-service/internal/service"
	"github.com/spec-kit/blog-service/internal/worker"
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

	keys, err := auth.NewKeys([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		logger.Fatal("failed to build key material", zap.Error(err))
	}

	hasher, err := auth.NewPasswordHasher(auth.Argon2Params{
		Time:    cfg.Auth.Argon2Time,
		Memory:  cfg.Auth.Argon2MemoryKiB,
		Threads: cfg.Auth.Argon2Threads,
	})
	if err != nil {
		logger.Fatal("failed to init password hasher", zap.Error(err))
	}

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

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	postRepo := repository.NewPostRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartAuditWorker(dispatcher, logger)

	metrics := observability.NewMetrics()
	tokens := auth.NewTokenManager(keys, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	authMiddleware := auth.NewMiddleware(tokens, logger, metrics)
	loginLimiter := ratelimit.NewLimiter(redis.Client, cfg.Auth.LoginRateLimit,
		time.Duration(cfg.Auth.LoginRateWindowSec)*time.Second, logger)

	authService := service.NewAuthService(userRepo, hasher, tokens, dispatcher, logger)
	userService := service.NewUserService(userRepo, hasher, dispatcher)
	postService := service.NewPostService(postRepo, dispatcher)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, cfg, logger, metrics)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:         handlers.NewAuthHandler(authService),
		Users:        handlers.NewUsersHandler(userService),
		Posts:        handlers.NewPostsHandler(postService),
		Profile:      handlers.NewProfileHandler(userService),
		Middleware:   authMiddleware,
		LoginLimiter: loginLimiter,
	})

	go func() {
		addr := cfg.App.Addr()
		if cfg.TLS.Enabled() {
			if err := app.ListenTLS(addr, cfg.TLS.CertPath, cfg.TLS.KeyPath); err != nil {
				logger.Fatal("fiber listen tls", zap.Error(err))
			}
			return
		}
		if err := app.Listen(addr); err != nil {
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
