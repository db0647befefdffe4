package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces every key this service writes.
const redisKeyPrefix = "advisor:kv:"

// maxUpdateAttempts bounds optimistic-lock retries in Redis.Update.
const maxUpdateAttempts = 5

// Redis is the KV backed by plain Redis strings.
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// OpenRedis parses url, connects and pings the server.
func OpenRedis(ctx context.Context, url string) (*Redis, error) {
	if url == "" {
		return nil, errors.New("store: redis backend requires REDIS_URL")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("store: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("store: ping redis: %w", err)
	}
	return NewRedis(client), nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %q: %w", key, err)
	}
	return v, nil
}

func (r *Redis) Put(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, redisKeyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("store: put %q: %w", key, err)
	}
	return nil
}

// Update uses WATCH/MULTI so a concurrent writer forces a retry instead of a
// lost update.
func (r *Redis) Update(ctx context.Context, key string, fn UpdateFunc) ([]byte, error) {
	full := redisKeyPrefix + key
	var written []byte

	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, full).Bytes()
		exists := true
		if errors.Is(err, redis.Nil) {
			cur, exists = nil, false
		} else if err != nil {
			return err
		}

		next, err := fn(cur, exists)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, full, next, 0)
			return nil
		})
		if err == nil {
			written = next
		}
		return err
	}

	for range maxUpdateAttempts {
		err := r.client.Watch(ctx, txf, full)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("store: update %q: %w", key, err)
		}
		return written, nil
	}
	return nil, fmt.Errorf("store: update %q: too much contention", key)
}

func (r *Redis) Close() error {
	return r.client.Close()
}
