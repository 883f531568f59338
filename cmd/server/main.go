package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/renewo/renewo-server/internal/adapters/notify"
	"github.com/renewo/renewo-server/internal/adapters/postgres"
	"github.com/renewo/renewo-server/internal/adapters/secrets"
	"github.com/renewo/renewo-server/internal/api"
	"github.com/renewo/renewo-server/internal/config"
	"github.com/renewo/renewo-server/internal/domain/ports"
	entitlementsService "github.com/renewo/renewo-server/internal/services/entitlements"
	subscriptionService "github.com/renewo/renewo-server/internal/services/subscription"
	"github.com/renewo/renewo-server/pkg/middleware"
	"github.com/renewo/renewo-server/pkg/observability"
	"github.com/renewo/renewo-server/pkg/security"
	"github.com/renewo/renewo-server/pkg/timeutil"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	loggerAdapter, err := security.NewZapLoggerWithLevel(cfg.Logger.Level, cfg.Logger.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	zapLogger := loggerAdapter.Unwrap()
	defer zapLogger.Sync()

	zapLogger.Info("Starting renewo server",
		zap.String("version", "0.1.0"),
	)

	ctx := context.Background()

	// Resolve the database password through the configured secrets backend
	if cfg.Database.PasswordSecretPath != "" {
		secretManager, err := initSecretManager(ctx, cfg, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to initialize secret manager", zap.Error(err))
		}
		if err := cfg.ResolveDatabasePassword(ctx, secretManager); err != nil {
			zapLogger.Fatal("Failed to resolve database password", zap.Error(err))
		}
	}

	dbPool, err := initDatabase(ctx, cfg)
	if err != nil {
		zapLogger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbPool.Close()

	zapLogger.Info("Database connection established",
		zap.String("database", cfg.Database.Database),
	)

	// Adapters
	dbExecutor := postgres.NewDBExecutor(dbPool)
	subscriptionStore := postgres.NewSubscriptionStore(dbExecutor)
	notificationStore := postgres.NewNotificationStore(dbExecutor)
	settingsStore := postgres.NewSettingsStore(dbExecutor)
	entitlementGateway := postgres.NewEntitlementGateway(dbExecutor)
	scheduler := notify.NewScheduler(notificationStore, settingsStore, loggerAdapter)

	// Services
	subscriptionSvc := subscriptionService.NewService(
		dbExecutor,
		subscriptionStore,
		scheduler,
		settingsStore,
		loggerAdapter,
		nil,
	)
	entitlementsSvc := entitlementsService.NewService(entitlementGateway, loggerAdapter)

	// Warm the entitlement cache; a failed refresh falls back to free tier
	if _, err := entitlementsSvc.Refresh(ctx); err != nil {
		zapLogger.Warn("Entitlement refresh failed, starting as free tier", zap.Error(err))
	}

	// Normalize overdue renewals once at startup, then daily via cron
	runSweep(ctx, subscriptionSvc, cfg, zapLogger, "startup")

	sweepCron := cron.New()
	if _, err := sweepCron.AddFunc(cfg.Sweep.Schedule, func() {
		runSweep(context.Background(), subscriptionSvc, cfg, zapLogger, "cron")
	}); err != nil {
		zapLogger.Fatal("Invalid sweep schedule", zap.String("schedule", cfg.Sweep.Schedule), zap.Error(err))
	}
	sweepCron.Start()
	defer sweepCron.Stop()

	// HTTP API
	handlers := api.NewHandlers(
		subscriptionSvc,
		entitlementsSvc,
		settingsStore,
		scheduler,
		loggerAdapter,
		nil,
	)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		defer rateLimiter.Shutdown()
	}

	healthChecker := observability.NewHealthChecker(dbPool)
	router := api.SetupRoutes(handlers, api.RouterOptions{
		RateLimiter:    rateLimiter,
		HealthChecker:  healthChecker,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	metricsServer := observability.StartMetricsServer(fmt.Sprintf("%d", cfg.Server.MetricsPort), healthChecker)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zapLogger.Info("HTTP server listening",
			zap.String("address", httpServer.Addr),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("HTTP server shutdown error", zap.Error(err))
	}
	if err := observability.ShutdownMetricsServer(metricsServer); err != nil {
		zapLogger.Error("Metrics server shutdown error", zap.Error(err))
	}

	zapLogger.Info("Server stopped")
}

// runSweep rolls overdue renewal dates forward with a bounded timeout.
// Sweep failures are logged and recorded but never take the process down.
func runSweep(ctx context.Context, svc *subscriptionService.Service, cfg *config.Config, logger *zap.Logger, trigger string) {
	sweepCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Sweep.TimeoutSeconds)*time.Second)
	defer cancel()

	start := time.Now()
	err := svc.NormalizeOverdueRenewals(sweepCtx, timeutil.Now(), subscriptionService.SweepOptions{BestEffort: true})
	observability.RecordSweep(trigger, time.Since(start).Seconds(), 0, err)
	if err != nil {
		logger.Error("Renewal sweep failed",
			zap.String("trigger", trigger),
			zap.Error(err),
		)
		return
	}
	logger.Info("Renewal sweep completed",
		zap.String("trigger", trigger),
		zap.Duration("duration", time.Since(start)),
	)
}

// initDatabase initializes the PostgreSQL connection pool
func initDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// initSecretManager picks the secrets backend from configuration.
// Supports: local filesystem (development), AWS Secrets Manager, Vault.
func initSecretManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.SecretManager, error) {
	switch cfg.Secrets.Backend {
	case "local":
		return secrets.NewLocalSecretManager(cfg.Secrets.LocalBasePath, logger), nil

	case "aws":
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.Secrets.AWSRegion)
		awsCfg.Profile = cfg.Secrets.AWSProfile
		awsCfg.Endpoint = cfg.Secrets.AWSEndpoint
		return secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)

	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.Secrets.VaultAddress)
		vaultCfg.Token = cfg.Secrets.VaultToken
		return secrets.NewVaultAdapter(ctx, vaultCfg, logger)

	default:
		return nil, fmt.Errorf("unsupported secrets backend %q (DB_PASSWORD_SECRET_PATH requires local, aws, or vault)", cfg.Secrets.Backend)
	}
}
