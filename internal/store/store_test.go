package store_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/advisory-drafting-backend/internal/db"
	"github.com/nyashahama/advisory-drafting-backend/internal/store"
)

// ─── TEST INFRASTRUCTURE ──────────────────────────────────────────────────────

// openTestDB returns a *sql.DB from DATABASE_URL with the schema applied.
// Skips if the env var is not set so the suite still passes without Postgres.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping postgres store tests")
	}
	pool, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, pool.PingContext(context.Background()))
	t.Cleanup(func() { pool.Close() })

	schema, err := os.ReadFile("../../sql/schema.sql")
	require.NoError(t, err)
	_, err = pool.ExecContext(context.Background(), string(schema))
	require.NoError(t, err)
	return pool
}

func openTestRedis(t *testing.T) *store.Redis {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set, skipping redis store tests")
	}
	r, err := store.OpenRedis(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

// uniqueKey keeps integration tests from seeing each other's rows.
func uniqueKey(t *testing.T) string {
	return fmt.Sprintf("test:%s:%s", t.Name(), uuid.NewString())
}

// counter is the document used by the Update tests.
type counter struct {
	N int `json:"n"`
}

func increment(cur []byte, exists bool) ([]byte, error) {
	var c counter
	if exists {
		if err := json.Unmarshal(cur, &c); err != nil {
			return nil, err
		}
	}
	c.N++
	return json.Marshal(c)
}

// runKVContract exercises the behaviour every backend must share.
func runKVContract(t *testing.T, kv store.KV) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := kv.Get(ctx, uniqueKey(t))
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("put then get", func(t *testing.T) {
		key := uniqueKey(t)
		require.NoError(t, kv.Put(ctx, key, []byte(`{"a":1}`)))
		require.NoError(t, kv.Put(ctx, key, []byte(`{"a":2}`)))

		got, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":2}`, string(got))
	})

	t.Run("update creates and increments", func(t *testing.T) {
		key := uniqueKey(t)
		for range 3 {
			_, err := kv.Update(ctx, key, increment)
			require.NoError(t, err)
		}
		got, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"n":3}`, string(got))
	})

	t.Run("update error leaves value untouched", func(t *testing.T) {
		key := uniqueKey(t)
		require.NoError(t, kv.Put(ctx, key, []byte(`{"n":7}`)))

		boom := errors.New("boom")
		_, err := kv.Update(ctx, key, func([]byte, bool) ([]byte, error) { return nil, boom })
		require.ErrorIs(t, err, boom)

		got, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"n":7}`, string(got))
	})
}

// ─── MEMORY ───────────────────────────────────────────────────────────────────

func TestMemory_Contract(t *testing.T) {
	runKVContract(t, store.NewMemory())
}

func TestMemory_ConcurrentUpdates(t *testing.T) {
	kv := store.NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = kv.Update(ctx, "counter", increment)
		}()
	}
	wg.Wait()

	got, err := kv.Get(ctx, "counter")
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":50}`, string(got))
}

func TestMemory_ValuesAreCopied(t *testing.T) {
	kv := store.NewMemory()
	ctx := context.Background()

	v := []byte(`{"a":1}`)
	require.NoError(t, kv.Put(ctx, "k", v))
	v[2] = 'X'

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := store.Open(context.Background(), store.OpenConfig{Backend: "etcd"})
	require.Error(t, err)
}

func TestOpen_MissingURLs(t *testing.T) {
	_, err := store.Open(context.Background(), store.OpenConfig{Backend: store.BackendPostgres})
	require.Error(t, err)
	_, err = store.Open(context.Background(), store.OpenConfig{Backend: store.BackendRedis})
	require.Error(t, err)
}

func TestOpen_DefaultsToMemory(t *testing.T) {
	kv, err := store.Open(context.Background(), store.OpenConfig{})
	require.NoError(t, err)
	assert.IsType(t, &store.Memory{}, kv)
}

// ─── POSTGRES ─────────────────────────────────────────────────────────────────

func TestPostgres_Contract(t *testing.T) {
	pool := openTestDB(t)
	runKVContract(t, store.NewPostgres(pool, db.New(pool)))
}

func TestPostgres_RejectsNonJSON(t *testing.T) {
	pool := openTestDB(t)
	kv := store.NewPostgres(pool, db.New(pool))
	require.Error(t, kv.Put(context.Background(), uniqueKey(t), []byte("not json")))
}

func TestPostgres_ConcurrentUpdatesOfNewKey(t *testing.T) {
	pool := openTestDB(t)
	kv := store.NewPostgres(pool, db.New(pool))
	ctx := context.Background()
	key := uniqueKey(t)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := kv.Update(ctx, key, increment)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := kv.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":4}`, string(got))
}

// ─── REDIS ────────────────────────────────────────────────────────────────────

func TestRedis_Contract(t *testing.T) {
	runKVContract(t, openTestRedis(t))
}
