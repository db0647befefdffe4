// Package exemplar manages the advisor-curated library of situation →
// response exemplars used as style references for drafting.
//
// The library is persisted as one JSON array under a fixed key in the KV
// store. The in-memory copy is authoritative: a failed write is reported as
// a *PersistenceError and logged, but the change stays applied in memory.
package exemplar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nyashahama/advisory-drafting-backend/internal/advisory"
	"github.com/nyashahama/advisory-drafting-backend/internal/store"
)

// StorageKey is the KV key holding the library.
const StorageKey = "advisor.exemplars.v1"

var (
	// ErrBuiltIn is returned when deleting a reserved built-in exemplar.
	ErrBuiltIn = errors.New("exemplar: built-in exemplars cannot be deleted")

	// ErrNotFound is returned when deleting an unknown id.
	ErrNotFound = errors.New("exemplar: not found")

	// ErrInvalid is returned by Add for an incomplete exemplar.
	ErrInvalid = errors.New("exemplar: invalid exemplar")
)

// PersistenceError reports a failed read or write of the stored library. It
// is never fatal: the in-memory library remains usable.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("exemplar: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Library holds the built-in exemplars plus the advisor's own. It is safe for
// concurrent use.
type Library struct {
	kv     store.KV
	logger *slog.Logger

	// writeMu serializes Add and Delete so each write stores the state it
	// produced, in the order the changes were applied.
	writeMu sync.Mutex

	mu   sync.RWMutex
	user []advisory.Exemplar
}

// New returns a Library with only the built-ins loaded. Call Load to read
// the stored user exemplars.
func New(kv store.KV, logger *slog.Logger) *Library {
	return &Library{kv: kv, logger: logger}
}

// Load replaces the user exemplars with the stored ones. Stored records that
// reuse a built-in id are ignored, since built-ins always come from code. On
// error the library keeps only its built-ins.
func (l *Library) Load(ctx context.Context) error {
	raw, err := l.kv.Get(ctx, StorageKey)
	if errors.Is(err, store.ErrNotFound) {
		l.setUser(nil)
		return nil
	}
	if err != nil {
		l.setUser(nil)
		return l.persistenceFailure("load", err)
	}

	var stored []advisory.Exemplar
	if err := json.Unmarshal(raw, &stored); err != nil {
		l.setUser(nil)
		return l.persistenceFailure("decode", err)
	}

	user := make([]advisory.Exemplar, 0, len(stored))
	for _, ex := range stored {
		if IsBuiltIn(ex.ID) || ex.ID == "" {
			continue
		}
		user = append(user, ex)
	}
	l.setUser(user)
	l.logger.Info("exemplar: library loaded", "user_exemplars", len(user))
	return nil
}

// List returns the built-ins followed by the user exemplars in insertion
// order.
func (l *Library) List() []advisory.Exemplar {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]advisory.Exemplar, 0, len(builtIns)+len(l.user))
	out = append(out, builtIns...)
	out = append(out, l.user...)
	return out
}

// Add validates ex, assigns it a fresh id and appends it. A non-nil
// *PersistenceError means the exemplar was added but not saved.
func (l *Library) Add(ctx context.Context, ex advisory.Exemplar) (advisory.Exemplar, error) {
	ex.Category = strings.TrimSpace(ex.Category)
	ex.Situation = strings.TrimSpace(ex.Situation)
	ex.Response = strings.TrimSpace(ex.Response)
	ex.Service = strings.TrimSpace(ex.Service)

	tone, err := advisory.ParseTone(string(ex.Tone))
	if err != nil {
		return advisory.Exemplar{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	ex.Tone = tone
	if ex.Category == "" || !ex.Complete() {
		return advisory.Exemplar{}, fmt.Errorf("%w: category, situation and response are required", ErrInvalid)
	}
	ex.ID = uuid.NewString()

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	l.user = append(l.user, ex)
	l.mu.Unlock()

	return ex, l.save(ctx)
}

// Delete removes a user exemplar. Built-in ids return ErrBuiltIn. A non-nil
// *PersistenceError means the exemplar was removed but the removal was not
// saved.
func (l *Library) Delete(ctx context.Context, id string) error {
	if IsBuiltIn(id) {
		return ErrBuiltIn
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.Lock()
	idx := slices.IndexFunc(l.user, func(ex advisory.Exemplar) bool { return ex.ID == id })
	if idx < 0 {
		l.mu.Unlock()
		return ErrNotFound
	}
	l.user = slices.Delete(slices.Clone(l.user), idx, idx+1)
	l.mu.Unlock()

	return l.save(ctx)
}

// save writes the whole library under StorageKey. Callers hold writeMu.
func (l *Library) save(ctx context.Context) error {
	data, err := json.Marshal(l.List())
	if err != nil {
		return l.persistenceFailure("encode", err)
	}
	if err := l.kv.Put(ctx, StorageKey, data); err != nil {
		return l.persistenceFailure("save", err)
	}
	return nil
}

func (l *Library) setUser(user []advisory.Exemplar) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.user = user
}

func (l *Library) persistenceFailure(op string, err error) error {
	l.logger.Error("exemplar: persistence failed, keeping in-memory library", "op", op, "error", err)
	return &PersistenceError{Op: op, Err: err}
}
