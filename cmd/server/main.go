package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/harborworks/drydock/internal"
	"github.com/harborworks/drydock/internal/billing"
	"github.com/harborworks/drydock/internal/handler"
	"github.com/harborworks/drydock/internal/handler/webhook"
	"github.com/harborworks/drydock/internal/middleware"
	"github.com/harborworks/drydock/internal/repository"
	"github.com/harborworks/drydock/internal/router"
	"github.com/harborworks/drydock/internal/routes"
	"github.com/harborworks/drydock/internal/service"
	"github.com/harborworks/drydock/internal/telemetry"
	"github.com/harborworks/drydock/internal/worker"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed")

	// Initialize pgx connection pool for the application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize repository store
	store := repository.NewStore(pool)

	// Business metrics
	telemetry.InitBusinessMetrics(cfg.Namespace)

	// Payment gateway: Stripe when a key is configured, in-memory mock in dev
	var provider billing.Provider
	if cfg.Stripe.SecretKey != "" {
		stripeCfg := billing.StripeConfig{
			APIKey:            cfg.Stripe.SecretKey,
			Timeout:           cfg.Stripe.Timeout,
			MaxNetworkRetries: int(cfg.Stripe.MaxNetworkRetries),
		}
		gateway, err := billing.NewStripeGateway(stripeCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize Stripe gateway: %w", err)
		}
		provider = gateway
		logger.Info("Stripe gateway initialized", "test_mode", stripeCfg.IsTestMode())
	} else {
		provider = billing.NewMockGateway()
		logger.Warn("No Stripe key configured, using in-memory mock gateway")
	}

	// Initialize services
	orderService, err := service.NewOrderService(store, cfg.TenantID, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize order service: %w", err)
	}

	ledgerService, err := service.NewLedgerService(store, provider, cfg.TenantID, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize ledger service: %w", err)
	}

	// Reconciliation worker
	if cfg.Worker.Enabled {
		w := worker.NewWorker(ledgerService, worker.Config{
			PollInterval: cfg.Worker.PollInterval,
			StaleAfter:   cfg.Worker.StaleAfter,
			BatchSize:    int32(cfg.Worker.BatchSize),
		}, logger)
		go func() {
			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("reconciliation worker stopped", "error", err)
			}
		}()
	}

	// HTTP metrics middleware
	metrics := middleware.NewMetrics(cfg.Namespace)

	// Rate limiting
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer rateLimiter.Stop()

	// Router with the shared middleware chain
	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		middleware.WithClientIP,
		metrics.Middleware,
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		rateLimiter.Middleware,
		middleware.WithRequestLogger(logger),
	)

	// Metrics endpoint (protect via firewall in production)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics.Handler().ServeHTTP(w, req)
	})

	// Health check endpoint
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := pool.Ping(req.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// JSON API
	routes.RegisterAPIRoutes(r, routes.APIDeps{
		Orders: handler.NewOrderHandler(orderService),
		Ledger: handler.NewLedgerHandler(ledgerService),
	})

	// Stripe webhook, only when a signing secret is configured
	if cfg.Stripe.WebhookSecret != "" {
		stripeWebhook := webhook.NewStripeHandler(ledgerService, webhook.StripeWebhookConfig{
			WebhookSecret: cfg.Stripe.WebhookSecret,
			TenantID:      cfg.TenantID,
		}, logger)
		webhookRouter := r.Group(middleware.MaxBodySize(middleware.WebhookMaxBodySize))
		routes.RegisterWebhookRoutes(webhookRouter, routes.WebhookDeps{
			StripeHandler: stripeWebhook.HandleWebhook,
		})
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	logger.Info("Server stopped")

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
