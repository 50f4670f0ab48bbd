package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/SscSPs/property_fines_app/internal/adapters/billing"
	"github.com/SscSPs/property_fines_app/internal/adapters/gateway"
	"github.com/SscSPs/property_fines_app/internal/adapters/notification"
	"github.com/SscSPs/property_fines_app/internal/core/services"
	"github.com/SscSPs/property_fines_app/internal/handlers"
	"github.com/SscSPs/property_fines_app/internal/middleware"
	"github.com/SscSPs/property_fines_app/internal/platform/config"
	"github.com/SscSPs/property_fines_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/property_fines_app/internal/utils"
	"github.com/SscSPs/property_fines_app/internal/workers/overdue"
	"github.com/SscSPs/property_fines_app/pkg/database"
)

// @title Property Fines API
// @version 1.0
// @description Violations, fines, payments and billing export for residential properties.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	notifier, natsConn, err := notification.Connect(cfg.NATSURL, cfg.NotificationSubjectPrefix, logger)
	if err != nil {
		logger.Error("Failed to connect notifier", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}

	repos := pgsql.NewRepositoryProvider(dbPool)
	container := services.NewServiceContainer(cfg, repos, services.Collaborators{
		Notifier: notifier,
		Ledger:   billing.NewClient(cfg.BillingAPIURL, cfg.BillingAPIToken, cfg.BillingTimeout),
		Gateway: gateway.NewClient(gateway.Config{
			KeyID:     cfg.GatewayKeyID,
			KeySecret: cfg.GatewayKeySecret,
			APIURL:    cfg.GatewayAPIURL,
			Timeout:   cfg.GatewayTimeout,
			Precision: cfg.CurrencyPrecision,
		}),
	})

	sweeper := overdue.NewSweeper(container.Fine, cfg.OverdueSweepSchedule, logger)
	if err := sweeper.Start(ctx); err != nil {
		logger.Error("Failed to start overdue sweeper", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer sweeper.Stop()

	rateLimiter, err := newRateLimiter(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to set up rate limiter", slog.String("error", err.Error()))
		os.Exit(1)
	}

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, cfg.PosthogEndpoint, logger)
	defer posthogClient.Close()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		middleware.MetricsMiddleware(),
		cors.New(corsConfig),
		middleware.RateLimit(rateLimiter),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, container, posthogClient)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", slog.String("error", err.Error()))
	}
}

func newRateLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		return nil, err
	}
	if cfg.RedisURL == "" {
		logger.Info("Rate limiter using in-memory store", slog.String("rate", cfg.RateLimit))
		return limiter.New(memory.NewStore(), rate), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: "fines_rate_limit"})
	if err != nil {
		return nil, err
	}
	logger.Info("Rate limiter using redis store", slog.String("rate", cfg.RateLimit))
	return limiter.New(store, rate), nil
}
