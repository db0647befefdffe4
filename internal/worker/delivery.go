package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nyashahama/advisory-drafting-backend/internal/email"
	"github.com/nyashahama/advisory-drafting-backend/internal/store"
)

// Status is the lifecycle state of one outreach delivery.
type Status string

const (
	StatusQueued Status = "queued"
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// ErrDeliveryNotFound is returned for an unknown delivery id.
var ErrDeliveryNotFound = errors.New("worker: delivery not found")

// Delivery is the stored record of one outreach message.
type Delivery struct {
	ID          uuid.UUID `json:"id"`
	Status      Status    `json:"status"`
	To          string    `json:"to"`
	Customer    string    `json:"customer_name,omitempty"`
	Product     string    `json:"product_name,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	Body        string    `json:"body"`
	Attempts    int       `json:"attempts"`
	LastError   string    `json:"last_error,omitempty"`
	MessageID   string    `json:"message_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// Params converts the record back into sender input.
func (d Delivery) Params() email.OutreachParams {
	return email.OutreachParams{
		To:           d.To,
		CustomerName: d.Customer,
		ProductName:  d.Product,
		Subject:      d.Subject,
		Body:         d.Body,
	}
}

// Deliveries keeps delivery records in the KV store under "outreach:<id>".
type Deliveries struct {
	kv  store.KV
	now func() time.Time
}

func NewDeliveries(kv store.KV) *Deliveries {
	return &Deliveries{kv: kv, now: time.Now}
}

func deliveryKey(id uuid.UUID) string {
	return "outreach:" + id.String()
}

// Create stores a new queued delivery for p.
func (d *Deliveries) Create(ctx context.Context, p email.OutreachParams) (Delivery, error) {
	rec := Delivery{
		ID:        uuid.New(),
		Status:    StatusQueued,
		To:        p.To,
		Customer:  p.CustomerName,
		Product:   p.ProductName,
		Subject:   p.Subject,
		Body:      p.Body,
		CreatedAt: d.now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return Delivery{}, fmt.Errorf("worker: encode delivery: %w", err)
	}
	if err := d.kv.Put(ctx, deliveryKey(rec.ID), data); err != nil {
		return Delivery{}, fmt.Errorf("worker: create delivery: %w", err)
	}
	return rec, nil
}

// Get returns the delivery with id or ErrDeliveryNotFound.
func (d *Deliveries) Get(ctx context.Context, id uuid.UUID) (Delivery, error) {
	raw, err := d.kv.Get(ctx, deliveryKey(id))
	if errors.Is(err, store.ErrNotFound) {
		return Delivery{}, ErrDeliveryNotFound
	}
	if err != nil {
		return Delivery{}, fmt.Errorf("worker: get delivery: %w", err)
	}
	var rec Delivery
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Delivery{}, fmt.Errorf("worker: decode delivery: %w", err)
	}
	return rec, nil
}

// BeginAttempt increments the attempt counter and returns the updated record.
func (d *Deliveries) BeginAttempt(ctx context.Context, id uuid.UUID) (Delivery, error) {
	return d.update(ctx, id, func(rec *Delivery) {
		rec.Attempts++
	})
}

// MarkSent records a successful send.
func (d *Deliveries) MarkSent(ctx context.Context, id uuid.UUID, messageID string) (Delivery, error) {
	return d.update(ctx, id, func(rec *Delivery) {
		rec.Status = StatusSent
		rec.MessageID = messageID
		rec.LastError = ""
		rec.CompletedAt = d.now().UTC()
	})
}

// MarkFailed records a permanent failure.
func (d *Deliveries) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (Delivery, error) {
	return d.update(ctx, id, func(rec *Delivery) {
		rec.Status = StatusFailed
		rec.LastError = reason
		rec.CompletedAt = d.now().UTC()
	})
}

// RecordError stores the latest attempt error without changing the status.
func (d *Deliveries) RecordError(ctx context.Context, id uuid.UUID, reason string) (Delivery, error) {
	return d.update(ctx, id, func(rec *Delivery) {
		rec.LastError = reason
	})
}

func (d *Deliveries) update(ctx context.Context, id uuid.UUID, mutate func(*Delivery)) (Delivery, error) {
	var rec Delivery
	_, err := d.kv.Update(ctx, deliveryKey(id), func(cur []byte, exists bool) ([]byte, error) {
		if !exists {
			return nil, ErrDeliveryNotFound
		}
		rec = Delivery{}
		if err := json.Unmarshal(cur, &rec); err != nil {
			return nil, fmt.Errorf("worker: decode delivery: %w", err)
		}
		mutate(&rec)
		return json.Marshal(rec)
	})
	if err != nil {
		return Delivery{}, err
	}
	return rec, nil
}
