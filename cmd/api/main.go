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

	"github.com/nyashahama/advisory-drafting-backend/internal/api"
	"github.com/nyashahama/advisory-drafting-backend/internal/compliance"
	"github.com/nyashahama/advisory-drafting-backend/internal/config"
	"github.com/nyashahama/advisory-drafting-backend/internal/datasource"
	"github.com/nyashahama/advisory-drafting-backend/internal/email"
	"github.com/nyashahama/advisory-drafting-backend/internal/exemplar"
	"github.com/nyashahama/advisory-drafting-backend/internal/resolver"
	"github.com/nyashahama/advisory-drafting-backend/internal/store"
	"github.com/nyashahama/advisory-drafting-backend/internal/synth"
	"github.com/nyashahama/advisory-drafting-backend/internal/worker"
)

func main() {
	// ── Logger ────────────────────────────────────────────────────────────────
	// JSON in production, pretty text in development.
	var logger *slog.Logger
	if os.Getenv("ENV") == "production" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── Config ────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.Info("config loaded", "env", cfg.Env, "port", cfg.Port, "store", cfg.StoreBackend)

	// Root context cancelled by OS signal. Worker and HTTP server both respect it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Store ─────────────────────────────────────────────────────────────────
	openCtx, cancelOpen := context.WithTimeout(ctx, 10*time.Second)
	kv, err := store.Open(openCtx, store.OpenConfig{
		Backend:     cfg.StoreBackend,
		DatabaseURL: cfg.DatabaseURL,
		RedisURL:    cfg.RedisURL,
	})
	cancelOpen()
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer kv.Close()
	logger.Info("store connected", "backend", cfg.StoreBackend)

	// ── Compliance policy ─────────────────────────────────────────────────────
	policy, err := compliance.LoadPolicy(cfg.CompliancePolicyFile)
	if err != nil {
		return fmt.Errorf("compliance policy: %w", err)
	}
	engine := compliance.NewEngine(policy)

	// ── Exemplar library ──────────────────────────────────────────────────────
	// A load failure is not fatal: the built-ins are always available.
	library := exemplar.New(kv, logger)
	if err := library.Load(ctx); err != nil {
		logger.Warn("exemplar library starting with built-ins only", "error", err)
	}

	// ── Resolution ────────────────────────────────────────────────────────────
	syn := synth.New()
	source := datasource.NewHTTPSource(cfg.DataServiceURL, cfg.DataServiceTimeout)
	res := resolver.New(source, syn, logger)

	// ── Email (Resend) ────────────────────────────────────────────────────────
	var mailer email.Sender
	if cfg.ResendAPIKey != "" {
		mailer = email.NewResendClient(cfg.ResendAPIKey, cfg.EmailFromAddr, cfg.EmailFromName, "")
	} else {
		logger.Warn("email: RESEND_API_KEY not set, outreach will only be logged")
		mailer = email.NewLogSender(logger)
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	deliveries := worker.NewDeliveries(kv)
	job := worker.NewJob(deliveries, mailer, logger)
	runner := worker.NewRunner(job, deliveries, worker.RunnerConfig{
		Workers:    cfg.WorkerCount,
		JobTimeout: cfg.JobTimeout,
		MaxRetries: cfg.MaxRetries,
	}, logger)

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.NewServer(api.Deps{
		Resolver:   res,
		Synth:      syn,
		Compliance: engine,
		Exemplars:  library,
		Deliveries: deliveries,
		Worker:     runner, // *Runner satisfies worker.Enqueuer
	}, api.Config{
		Env:           cfg.Env,
		ThinkingDelay: cfg.ThinkingDelay,
		SessionTTL:    cfg.SessionTTL,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	workerDone := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(workerDone)
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until either a signal arrives or the server dies unexpectedly.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		stop()
		<-workerDone
		return fmt.Errorf("server error: %w", err)
	}

	// Give in-flight HTTP requests up to 20 seconds to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	// Wait for the workers so the store is not closed under them.
	<-workerDone
	logger.Info("shutdown complete")
	return nil
}
