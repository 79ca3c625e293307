// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/waitlist-backend/internal/admin"
	"github.com/carterperez-dev/waitlist-backend/internal/auth"
	"github.com/carterperez-dev/waitlist-backend/internal/business"
	"github.com/carterperez-dev/waitlist-backend/internal/config"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
	"github.com/carterperez-dev/waitlist-backend/internal/customer"
	"github.com/carterperez-dev/waitlist-backend/internal/health"
	"github.com/carterperez-dev/waitlist-backend/internal/middleware"
	"github.com/carterperez-dev/waitlist-backend/internal/migrate"
	"github.com/carterperez-dev/waitlist-backend/internal/notification"
	"github.com/carterperez-dev/waitlist-backend/internal/public"
	"github.com/carterperez-dev/waitlist-backend/internal/reservation"
	"github.com/carterperez-dev/waitlist-backend/internal/server"
	"github.com/carterperez-dev/waitlist-backend/internal/subscription"
	"github.com/carterperez-dev/waitlist-backend/internal/user"
	"github.com/carterperez-dev/waitlist-backend/internal/waitlist"
)

const (
	drainDelay      = 5 * time.Second
	smsPerHour      = 30
	smsBurst        = 10
	publicPerSecond = 5
	publicBurst     = 20
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"env_file", cfg.EnvFile,
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("failed to initialize telemetry", "error", err)
		telemetry = &core.Telemetry{}
	}
	if telemetry.Enabled() {
		logger.Info("OpenTelemetry tracer initialized",
			"endpoint", cfg.Otel.Endpoint,
			"sample_rate", cfg.Otel.SampleRate,
		)
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"driver", cfg.Database.Driver,
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if err := migrate.Prepare(ctx, db, cfg.Database, cfg.Seed, logger); err != nil {
		return err
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redis.Enabled() {
		logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)
	} else {
		logger.Info("redis not configured, using in-process rate limits and no cache")
	}

	tokens, err := auth.NewTokenManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("token manager initialized", "algorithm", tokens.Algorithm())
	if es, ok := tokens.(*auth.JWTManager); ok {
		logger.Info("signing key loaded", "key_id", es.GetKeyID())
	}

	sender := notification.NewSender(cfg.SMS, logger)
	notifier := notification.NewNotifier(sender, logger)

	businessRepo := business.NewRepository(db.DB)
	businessSvc := business.NewService(businessRepo)
	businessHandler := business.NewHandler(businessSvc)

	customerSvc := customer.NewService(customer.NewRepository(db.DB))
	customerHandler := customer.NewHandler(customerSvc)

	userSvc := user.NewService(user.NewRepository(db.DB), businessSvc, logger)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(auth.NewRepository(db.DB), tokens, userSvc, redis.Client, logger)
	authHandler := auth.NewHandler(authSvc)

	waitlistSvc := waitlist.NewService(
		waitlist.NewRepository(db),
		businessSvc,
		customerSvc,
		notifier,
		logger,
	)
	waitlistHandler := waitlist.NewHandler(waitlistSvc)

	reservationSvc := reservation.NewService(
		reservation.NewRepository(db.DB),
		businessSvc,
		customerSvc,
		notifier,
		logger,
	)
	reservationHandler := reservation.NewHandler(reservationSvc)

	subscriptionSvc := subscription.NewService(subscription.NewRepository(db.DB), businessSvc, logger)
	subscriptionHandler := subscription.NewHandler(subscriptionSvc)

	notificationHandler := notification.NewHandler(notifier, customerSvc)

	publicSvc := public.NewService(
		businessSvc,
		waitlistSvc,
		core.NewJSONCache(redis.Client, "public:", cfg.Public.CacheTTL),
		logger,
	)
	publicHandler := public.NewHandler(publicSvc)

	var redisCheck health.Checker
	if redis.Enabled() {
		redisCheck = redis
	}
	healthHandler := health.NewHandler(db, redisCheck)

	adminCfg := admin.HandlerConfig{
		DBStats:       db.Stats,
		DBPing:        db.Ping,
		Businesses:    businessSvc,
		Customers:     customerSvc,
		Users:         userSvc,
		Reservations:  admin.CountsByStatus(reservationSvc.CountByStatus),
		Waitlist:      admin.CountsByStatus(waitlistSvc.CountByStatus),
		Subscriptions: admin.CountsByStatus(subscriptionSvc.CountByStatus),
		Tokens:        authSvc,
	}
	if redis.Enabled() {
		adminCfg.RedisStats = redis.PoolStats
		adminCfg.RedisPing = redis.Ping
	}
	adminHandler := admin.NewHandler(adminCfg)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
		ServiceName:   cfg.App.Name,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit:    middleware.ConfigLimit(cfg.RateLimit),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	if jwks, ok := tokens.(auth.JWKSProvider); ok {
		router.Get("/.well-known/jwks.json", jwks.GetJWKSHandler())
	}

	publicLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:    middleware.PerSecond(publicPerSecond, publicBurst),
		KeyFunc:  middleware.KeyByIPIn("public"),
		FailOpen: true,
	}).Handler
	publicHandler.RegisterRoutes(router, publicLimiter)

	smsLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:    middleware.PerHour(smsPerHour, smsBurst),
		KeyFunc:  middleware.KeyByUserAndEndpoint,
		FailOpen: true,
	}).Handler

	authenticator := middleware.Authenticator(authSvc)
	roleLimiter := middleware.RoleRateLimiter(redis.Client, middleware.DefaultRoleLimits)
	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)

		protected := func(next http.Handler) http.Handler {
			return authenticator(roleLimiter(next))
		}

		businessHandler.RegisterRoutes(r, protected)
		customerHandler.RegisterRoutes(r, protected)
		userHandler.RegisterRoutes(r, protected)
		waitlistHandler.RegisterRoutes(r, protected)
		reservationHandler.RegisterRoutes(r, protected)
		subscriptionHandler.RegisterRoutes(r, protected)
		notificationHandler.RegisterRoutes(r, protected, smsLimiter)
		adminHandler.RegisterRoutes(r, protected, middleware.RequireAdmin)
	})


	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
