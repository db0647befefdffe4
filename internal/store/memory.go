package store

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-process KV. Values are copied on the way in and out.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(v), nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = slices.Clone(value)
	return nil
}

func (m *Memory) Update(_ context.Context, key string, fn UpdateFunc) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.data[key]
	next, err := fn(slices.Clone(cur), ok)
	if err != nil {
		return nil, err
	}
	m.data[key] = slices.Clone(next)
	return next, nil
}

func (m *Memory) Close() error { return nil }
