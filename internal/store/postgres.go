package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"

	"github.com/nyashahama/advisory-drafting-backend/internal/db"
)

// Postgres is the KV backed by the kv_entries table. It holds a *sql.DB for
// starting transactions and a db.Querier for single statements.
type Postgres struct {
	// pool is the raw connection pool, used only to begin transactions.
	pool *sql.DB

	q db.Querier
}

// NewPostgres creates a Postgres store from a live connection pool. The pool
// must already be open and verified.
func NewPostgres(pool *sql.DB, q db.Querier) *Postgres {
	return &Postgres{pool: pool, q: q}
}

// OpenPostgres opens and pings a connection pool for dsn.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("store: postgres backend requires DATABASE_URL")
	}
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}

	pool.SetMaxOpenConns(10)
	pool.SetMaxIdleConns(5)
	pool.SetConnMaxLifetime(5 * time.Minute)
	pool.SetConnMaxIdleTime(2 * time.Minute)

	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	return NewPostgres(pool, db.New(pool)), nil
}

func (s *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	row, err := s.q.GetKV(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %q: %w", key, err)
	}
	if !row.Value.Valid {
		return nil, ErrNotFound
	}
	return row.Value.RawMessage, nil
}

func (s *Postgres) Put(ctx context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("store: put %q: value is not valid JSON", key)
	}
	_, err := s.q.UpsertKV(ctx, db.UpsertKVParams{
		Key:   key,
		Value: pqtype.NullRawMessage{RawMessage: value, Valid: true},
	})
	if err != nil {
		return fmt.Errorf("store: put %q: %w", key, err)
	}
	return nil
}

// Update locks the row, applies fn and writes the result in one serializable
// transaction. Serialization failures are retried up to maxUpdateAttempts
// times; fn may therefore run more than once.
func (s *Postgres) Update(ctx context.Context, key string, fn UpdateFunc) ([]byte, error) {
	var err error
	for range maxUpdateAttempts {
		var written []byte
		written, err = s.updateOnce(ctx, key, fn)
		if !isSerializationFailure(err) {
			return written, err
		}
	}
	return nil, fmt.Errorf("store: update %q: too much contention: %w", key, err)
}

func (s *Postgres) updateOnce(ctx context.Context, key string, fn UpdateFunc) ([]byte, error) {
	var written []byte

	err := s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		var cur []byte
		exists := false

		row, err := q.GetKVForUpdate(ctx, key)
		switch {
		case err == nil:
			if row.Value.Valid {
				cur, exists = row.Value.RawMessage, true
			}
		case errors.Is(err, sql.ErrNoRows):
		default:
			return fmt.Errorf("store: update %q: lock row: %w", key, err)
		}

		next, err := fn(cur, exists)
		if err != nil {
			return err
		}
		if !json.Valid(next) {
			return fmt.Errorf("store: update %q: value is not valid JSON", key)
		}

		if _, err := q.UpsertKV(ctx, db.UpsertKVParams{
			Key:   key,
			Value: pqtype.NullRawMessage{RawMessage: next, Valid: true},
		}); err != nil {
			return fmt.Errorf("store: update %q: write: %w", key, err)
		}
		written = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return written, nil
}

// isSerializationFailure reports whether err is a Postgres serialization
// failure or deadlock.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

func (s *Postgres) Close() error {
	return s.pool.Close()
}

// txQuerier receives a transactional Querier. Returning a non-nil error
// causes withTx to roll back.
type txQuerier func(ctx context.Context, q db.Querier) error

// withTx begins a serializable transaction, passes a Querier scoped to it to
// fn, and commits on success or rolls back on any error (including panics).
func (s *Postgres) withTx(ctx context.Context, fn txQuerier) error {
	tx, err := s.pool.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	txQ := s.q.(*db.Queries).WithTx(tx)

	if err := fn(ctx, txQ); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("store: fn error: %w; rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit transaction: %w", err)
	}
	return nil
}
