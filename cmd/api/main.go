package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/api"
	"github.com/storefront/commerce-api/internal/api/handler"
	"github.com/storefront/commerce-api/internal/core/ports"
	"github.com/storefront/commerce-api/internal/core/service"
	"github.com/storefront/commerce-api/internal/infrastructure/db/mongo"
	"github.com/storefront/commerce-api/internal/infrastructure/db/redis"
	"github.com/storefront/commerce-api/internal/infrastructure/queue"
	"github.com/storefront/commerce-api/internal/infrastructure/ratelimit"
	"github.com/storefront/commerce-api/internal/infrastructure/security"
	"github.com/storefront/commerce-api/internal/pkg/config"
	"github.com/storefront/commerce-api/pkg/logger"
)

const indexRetryInterval = 15 * time.Second

// @title                       Storefront Commerce API
// @version                     1.0
// @description                 User accounts, sessions and product catalog.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "commerce-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// --- MongoDB ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongo.Disconnect(context.Background(), mongoClient); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()

	userRepo := mongo.NewUserRepository(db)
	productRepo := mongo.NewProductRepository(db)
	auditRepo := mongo.NewAuditRepository(db)

	if err := mongo.Ping(ctx, mongoClient); err != nil {
		log.Error().Err(err).Msg("mongodb unreachable at startup, running degraded")
	}
	go mongo.EnsureIndexes(ctx, logger.Component("indexes"), indexRetryInterval, userRepo, productRepo, auditRepo)

	// --- Redis (optional) ---
	var (
		redisClient *goredis.Client
		limiter     ports.RateLimiter
	)
	if cfg.RateLimit.Enabled {
		redisClient, err = redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-process rate limiter")
			local := ratelimit.NewLocal(cfg.RateLimit.Capacity, cfg.RateLimit.RefillEvery)
			go local.Run(ctx)
			limiter = local
		} else {
			defer redisClient.Close()
			limiter = redis.NewLimiter(redisClient, cfg.RateLimit.Capacity, cfg.RateLimit.RefillEvery)
		}
	}

	// --- Audit trail ---
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditRepo, logger.Component("audit"))
	dispatcher.Start(ctx)

	// --- Services ---
	tokens, err := security.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	if err != nil {
		return err
	}
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)

	authService := service.NewAuthService(userRepo, hasher, tokens, dispatcher, logger.Component("auth"))
	userService := service.NewUserService(userRepo, dispatcher, logger.Component("users"))
	productService := service.NewProductService(productRepo, logger.Component("products"))

	if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		log.Error().Err(err).Msg("admin bootstrap failed")
	}

	checks := map[string]handler.CheckFunc{
		"mongodb": func(ctx context.Context) error { return mongo.Ping(ctx, mongoClient) },
		"redis":   nil,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redis.Ping(ctx, redisClient) }
	}

	e := api.NewRouter(api.Deps{
		Auth:         authService,
		Users:        userService,
		Products:     productService,
		UserRepo:     userRepo,
		Tokens:       tokens,
		Limiter:      limiter,
		RateCapacity: cfg.RateLimit.Capacity,
		RatePrefix:   cfg.RateLimit.Prefix,
		Cookie: handler.CookieOptions{
			Secure: cfg.Auth.CookieSecure,
			MaxAge: cfg.Auth.RefreshTokenTTL,
		},
		HealthChecks: checks,
		Log:          log,
	})

	// --- Serve ---
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}

	// Workers drain their queues once the root context is cancelled.
	cancel()
	dispatcher.Wait()
	return nil
}
