package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nyashahama/advisory-drafting-backend/internal/email"
)

// Job delivers one outreach message and records the outcome.
type Job struct {
	deliveries *Deliveries
	mailer     email.Sender
	logger     *slog.Logger
}

// NewJob constructs a Job with all required dependencies.
func NewJob(deliveries *Deliveries, mailer email.Sender, logger *slog.Logger) *Job {
	return &Job{
		deliveries: deliveries,
		mailer:     mailer,
		logger:     logger,
	}
}

// Run performs one delivery attempt:
//
//  1. Load the record and bump its attempt counter.
//  2. Skip it if it already reached a terminal state.
//  3. Hand the message to the sender.
//  4. Record the provider message id.
//
// A send error is returned to the Runner, which retries up to MaxRetries
// times before marking the delivery failed.
func (j *Job) Run(ctx context.Context, deliveryID uuid.UUID) error {
	log := j.logger.With("delivery_id", deliveryID)

	rec, err := j.deliveries.BeginAttempt(ctx, deliveryID)
	if err != nil {
		return fmt.Errorf("job: load delivery: %w", err)
	}
	if rec.Status != StatusQueued {
		log.Info("job: delivery already settled, skipping", "status", rec.Status)
		return nil
	}
	log.Debug("job: sending outreach", "attempt", rec.Attempts, "to", rec.To)

	messageID, err := j.mailer.SendOutreach(ctx, rec.Params())
	if err != nil {
		if _, recErr := j.deliveries.RecordError(ctx, deliveryID, err.Error()); recErr != nil {
			log.Error("job: could not record send error", "error", recErr)
		}
		return fmt.Errorf("job: send outreach: %w", err)
	}

	if _, err := j.deliveries.MarkSent(ctx, deliveryID, messageID); err != nil {
		// The message went out; retrying would send it twice.
		log.Error("job: outreach sent but status not saved", "message_id", messageID, "error", err)
		return nil
	}
	log.Info("job: outreach sent", "message_id", messageID)
	return nil
}
