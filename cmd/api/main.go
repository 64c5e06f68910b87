// Package main is the entry point for the FocusFlow entitlement API server.
//
// It loads configuration, connects to PostgreSQL, builds the domain services
// (plan catalog, entitlement evaluator, usage counter, account mutations,
// checkout, coach, calendar), wires them into the HTTP chassis, and serves
// until a shutdown signal arrives.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"focusflow/internal/account"
	"focusflow/internal/api/handlers"
	"focusflow/internal/auth"
	"focusflow/internal/billing"
	"focusflow/internal/calendar"
	"focusflow/internal/coach"
	"focusflow/internal/config"
	"focusflow/internal/core"
	"focusflow/internal/db"
	"focusflow/internal/metrics"
	"focusflow/internal/plan"
	"focusflow/internal/quota"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("focusflow API starting",
		"environment", cfg.Environment,
		"service", cfg.Service,
		"port", cfg.Server.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage.
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	profileRepo := db.NewProfileRepository(pool)
	sessionRepo := db.NewSessionRepository(pool)

	// Domain services.
	catalog := plan.NewStaticCatalog()
	evaluator := plan.NewEvaluator(catalog)
	collector := metrics.NewCollector()

	counter := quota.NewCounter(sessionRepo, catalog, cfg.Quota.FailurePolicy, logger,
		quota.WithStoreErrorRecorder(collector))
	guard := account.NewGuard(evaluator, counter)
	accountSvc := account.NewService(profileRepo, cfg.Admin.PrimaryAdminEmail, logger)

	checkout := billing.NewCheckoutService(&http.Client{Timeout: 30 * time.Second}, billing.CheckoutConfig{
		Billing:    cfg.Billing,
		SuccessURL: cfg.Server.DashboardURL + "/upgrade?success=true",
		CancelURL:  cfg.Server.DashboardURL + "/upgrade?canceled=true",
		Logger:     logger,
		Metrics:    collector,
	})

	insights, err := coach.NewInsightService(ctx, cfg.Coach, logger)
	if err != nil {
		return fmt.Errorf("initializing coach service: %w", err)
	}
	defer insights.Close()

	events := calendar.NewClient(cfg.Calendar, logger)

	// HTTP chassis.
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Metrics = collector
	srv.Authenticator = auth.NewVerifier(cfg.Auth)
	srv.DB = pool

	plansHandler := handlers.NewPlansHandler(catalog)
	entitlementsHandler := handlers.NewEntitlementsHandler(
		profileRepo, evaluator, counter, guard, accountSvc, catalog, logger,
	)
	accountHandler := handlers.NewAccountHandler(
		profileRepo, accountSvc, checkout, srv.Validator, logger,
	)
	sessionsHandler := handlers.NewSessionsHandler(
		profileRepo, sessionRepo, guard, collector, srv.Validator, logger,
	)
	coachHandler := handlers.NewCoachHandler(
		profileRepo, evaluator, sessionRepo, insights, logger,
	)
	calendarHandler := handlers.NewCalendarHandler(
		profileRepo, evaluator, events, logger,
	)

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		plansHandler.RegisterRoutes,
		entitlementsHandler.RegisterRoutes,
		accountHandler.RegisterRoutes,
		sessionsHandler.RegisterRoutes,
		coachHandler.RegisterRoutes,
		calendarHandler.RegisterRoutes,
	)
	srv.MountRoutes()

	return serveHTTP(ctx, srv, cfg, logger)
}

// serveHTTP runs the HTTP server until ctx is cancelled or the listener
// fails, then shuts down gracefully with a 10-second deadline.
func serveHTTP(ctx context.Context, srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
