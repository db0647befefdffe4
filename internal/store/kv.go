// Package store provides the key-value persistence used for the exemplar
// library and outreach delivery status. Three backends implement KV:
// in-memory (default, tests), Postgres (kv_entries table via db.Querier) and
// Redis.
//
// Values are JSON documents. The Postgres backend stores them as JSONB and
// rejects anything else.
//
// Dependency rule: store imports db only.
package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("store: key not found")

// UpdateFunc computes the next value from the current one. exists is false
// when the key has no value yet. Returning an error aborts the update and
// leaves the stored value untouched.
type UpdateFunc func(current []byte, exists bool) ([]byte, error)

// KV is a put/get store keyed by fixed strings.
type KV interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Update atomically replaces the value under key with fn's result and
	// returns the value written.
	Update(ctx context.Context, key string, fn UpdateFunc) ([]byte, error)

	// Close releases the backend's connections.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// OpenConfig selects and configures a backend.
type OpenConfig struct {
	Backend     string
	DatabaseURL string
	RedisURL    string
}

// Open connects to the configured backend and verifies the connection.
func Open(ctx context.Context, cfg OpenConfig) (KV, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendPostgres:
		return OpenPostgres(ctx, cfg.DatabaseURL)
	case BackendRedis:
		return OpenRedis(ctx, cfg.RedisURL)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}
