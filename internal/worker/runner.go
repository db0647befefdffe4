// Package worker delivers approved outreach drafts in the background. The api
// package holds a worker.Enqueuer and calls Enqueue after creating the
// delivery record; it never drives the Runner or Job directly.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ─── ENQUEUER INTERFACE ───────────────────────────────────────────────────────

// Enqueuer is the narrow interface the api package uses to hand off a
// delivery. The concrete implementation is *Runner. In tests, any struct with
// an Enqueue method satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, deliveryID uuid.UUID) error
}

// ErrQueueFull is returned by Enqueue when no buffer slot is free.
var ErrQueueFull = errors.New("worker: queue is full")

// ─── RUNNER ───────────────────────────────────────────────────────────────────

// RunnerConfig holds tuning parameters for the Runner. Zero fields take the
// values from DefaultRunnerConfig.
type RunnerConfig struct {
	// Workers is the number of concurrent delivery goroutines.
	Workers int

	// JobTimeout is the per-attempt context deadline.
	JobTimeout time.Duration

	// MaxRetries is the number of attempts before a delivery is marked failed.
	MaxRetries int

	// BaseBackoff is doubled per attempt: 2s, 4s, 8s with the default.
	BaseBackoff time.Duration
}

// DefaultRunnerConfig returns production defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers:     2,
		JobTimeout:  30 * time.Second,
		MaxRetries:  3,
		BaseBackoff: time.Second,
	}
}

// Runner manages a pool of worker goroutines fed by an in-process channel.
type Runner struct {
	job        *Job
	deliveries *Deliveries
	cfg        RunnerConfig
	logger     *slog.Logger

	queue chan uuid.UUID
	wg    sync.WaitGroup
}

// NewRunner constructs a Runner. Call Start to begin processing.
func NewRunner(job *Job, deliveries *Deliveries, cfg RunnerConfig, logger *slog.Logger) *Runner {
	def := DefaultRunnerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = def.BaseBackoff
	}

	return &Runner{
		job:        job,
		deliveries: deliveries,
		cfg:        cfg,
		logger:     logger,
		queue:      make(chan uuid.UUID, cfg.Workers*8),
	}
}

// Enqueue pushes a delivery onto the channel without blocking the caller.
func (r *Runner) Enqueue(_ context.Context, deliveryID uuid.UUID) error {
	select {
	case r.queue <- deliveryID:
		r.logger.Info("worker: enqueued delivery", "delivery_id", deliveryID)
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the worker pool and blocks until ctx is cancelled and every
// goroutine has returned:
//
//	go runner.Start(ctx)
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("worker: starting", "workers", r.cfg.Workers)

	for i := range r.cfg.Workers {
		r.wg.Add(1)
		go r.work(ctx, i)
	}

	r.wg.Wait()
	r.logger.Info("worker: stopped")
}

func (r *Runner) work(ctx context.Context, id int) {
	defer r.wg.Done()
	log := r.logger.With("worker_id", id)

	for {
		select {
		case <-ctx.Done():
			return
		case deliveryID := <-r.queue:
			r.runWithRetry(ctx, deliveryID, log)
		}
	}
}

// runWithRetry executes the job up to MaxRetries times, then marks the
// delivery failed so its status stops reading "queued".
func (r *Runner) runWithRetry(ctx context.Context, deliveryID uuid.UUID, log *slog.Logger) {
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		jobCtx, cancel := context.WithTimeout(ctx, r.cfg.JobTimeout)
		lastErr = r.job.Run(jobCtx, deliveryID)
		cancel()

		if lastErr == nil {
			log.Info("worker: job completed", "delivery_id", deliveryID, "attempt", attempt)
			return
		}

		log.Warn("worker: job attempt failed",
			"delivery_id", deliveryID,
			"attempt", attempt,
			"max", r.cfg.MaxRetries,
			"error", lastErr,
		)

		if attempt < r.cfg.MaxRetries {
			backoff := r.cfg.BaseBackoff << attempt
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
		}
	}

	log.Error("worker: job permanently failed", "delivery_id", deliveryID, "error", lastErr)
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := r.deliveries.MarkFailed(failCtx, deliveryID, lastErr.Error()); err != nil {
		log.Error("worker: failed to mark delivery as failed", "delivery_id", deliveryID, "error", err)
	}
}
