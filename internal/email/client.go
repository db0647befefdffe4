// Package email defines the interface for outreach delivery and provides a
// Resend-backed implementation plus a logging sender for development.
package email

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// OutreachParams holds one outreach message ready for delivery. Body is the
// compliance-checked draft text; it is escaped before being placed in HTML.
type OutreachParams struct {
	To           string
	CustomerName string
	ProductName  string
	Subject      string
	Body         string
}

// Sender is the interface the worker uses to deliver outreach. Tests inject a
// stub that records calls without hitting the network.
type Sender interface {
	// SendOutreach delivers one message and returns the provider's message id.
	SendOutreach(ctx context.Context, p OutreachParams) (string, error)
}

// logSender writes messages to the log instead of sending them. Used when no
// Resend API key is configured.
type logSender struct {
	logger *slog.Logger
}

// NewLogSender returns a Sender that only logs.
func NewLogSender(logger *slog.Logger) Sender {
	return &logSender{logger: logger}
}

func (s *logSender) SendOutreach(_ context.Context, p OutreachParams) (string, error) {
	id := "log-" + uuid.NewString()
	s.logger.Info("email: outreach not sent, no provider configured",
		"message_id", id,
		"to", p.To,
		"subject", p.Subject,
		"body_chars", len(p.Body),
	)
	return id, nil
}
