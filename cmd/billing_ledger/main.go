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

	"github.com/SscSPs/billing_ledger/internal/consumers"
	portsrepo "github.com/SscSPs/billing_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/billing_ledger/internal/core/services"
	"github.com/SscSPs/billing_ledger/internal/handlers"
	"github.com/SscSPs/billing_ledger/internal/middleware"
	"github.com/SscSPs/billing_ledger/internal/platform/config"
	"github.com/SscSPs/billing_ledger/internal/repositories/cache"
	"github.com/SscSPs/billing_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/billing_ledger/internal/repositories/memory"
	"github.com/SscSPs/billing_ledger/internal/scheduler"
	"github.com/SscSPs/billing_ledger/pkg/database"
	"github.com/SscSPs/billing_ledger/pkg/rabbitmq"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, claims, closeStore := setupStore(ctx, cfg, logger)
	defer closeStore()

	// Redis claims replace the store's own claims when configured.
	if cfg.RedisURL != "" {
		redisClient, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis unavailable; event claims disabled", slog.String("error", err.Error()))
		} else {
			defer redisClient.Close()
			claims = cache.NewRedisEventClaimStore(redisClient, "")
			logger.Info("Redis event claims enabled.")
		}
	}

	var publisher rabbitmq.Publisher = &rabbitmq.EventProducerFallback{}
	consumerCfg := consumers.ChargeConsumerConfig{
		Exchange:                 cfg.BillingExchange,
		ChargeQueue:              cfg.ChargeQueue,
		ChargeRoutingKey:         cfg.ChargeRoutingKey,
		AccountCreatedRoutingKey: cfg.AccountCreatedRoutingKey,
		DeadLetterQueue:          cfg.DeadLetterQueue,
		Prefetch:                 cfg.ChargePrefetch,
		MaxRetries:               cfg.ChargeMaxRetries,
		RetryBaseDelay:           cfg.ChargeRetryBaseDelay,
		RetryMaxDelay:            cfg.ChargeRetryMaxDelay,
	}
	if cfg.RabbitMQURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
		if err != nil {
			logger.Warn("RabbitMQ producer unavailable; charge events will be dropped", slog.String("error", err.Error()))
		} else {
			defer producer.Close()
			if err := consumers.DeclareTopology(producer, consumerCfg); err != nil {
				logger.Error("Failed to declare charge retry topology", slog.String("error", err.Error()))
				os.Exit(1)
			}
			publisher = producer
		}
	}

	container := services.NewServiceContainer(cfg, repos, publisher, claims)

	if cfg.RabbitMQURL != "" {
		consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL)
		if err != nil {
			logger.Error("Failed to connect charge consumer", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer consumer.Close()

		chargeHandler := consumers.NewChargeEventHandler(container, publisher, logger, consumerCfg)
		if err := chargeHandler.Start(ctx, consumer); err != nil {
			logger.Error("Failed to start charge consumer", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("Charge consumer started", slog.String("queue", cfg.ChargeQueue))
	}

	sweeper := scheduler.NewScheduler(container.Reconciliation, logger, cfg.ReconcileSchedule)
	if err := sweeper.Start(); err != nil {
		logger.Error("Failed to start reconciliation scheduler", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { <-sweeper.Stop().Done() }()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rateLimiter, err := middleware.NewMemoryLimiter(cfg.RateLimit)
	if err != nil {
		logger.Warn("Invalid rate limit; rate limiting disabled", slog.String("rate", cfg.RateLimit), slog.String("error", err.Error()))
		rateLimiter = nil
	}

	handlers.RegisterRoutes(r, cfg, container, rateLimiter)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown started")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}
	logger.Info("Shutdown complete")
}

// setupStore opens the configured balance store. The memory store doubles as the event claim store.
func setupStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, portsrepo.EventClaimStore, func()) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		store := memory.New()
		logger.Info("Using in-memory billing store.")
		return store.Provider(), store, func() {}
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Database connection pool established.")

	logger.Info("Running database migrations...")
	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		database.ClosePgxPool(dbPool)
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	return pgsql.NewRepositoryProvider(dbPool), nil, func() { database.ClosePgxPool(dbPool) }
}
