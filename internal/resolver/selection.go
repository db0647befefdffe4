package resolver

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/nyashahama/advisory-drafting-backend/internal/advisory"
)

// ErrSuperseded is returned by Selection.Select when a newer selection was
// made before this one completed. The stale result has been discarded.
var ErrSuperseded = errors.New("resolver: selection superseded")

// Selection holds the currently selected customer for one advisor and the
// view last produced for it. Each Select supersedes the previous one: the
// earlier in-flight resolution is cancelled and, if it still completes, its
// result is dropped instead of overwriting the newer state.
type Selection struct {
	resolver *Resolver
	delay    time.Duration

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	customerID string
	view       *advisory.AdvisoryView
	cached     []advisory.Candidate
}

// NewSelection returns an empty Selection. thinkingDelay is the pause applied
// before a synthesized narrative is surfaced; zero disables it.
func NewSelection(r *Resolver, thinkingDelay time.Duration) *Selection {
	return &Selection{resolver: r, delay: thinkingDelay}
}

// Select resolves customerID and makes it the current selection.
//
// Switching to a different customer clears the previous view before
// resolution starts. Re-selecting the same customer passes the current view
// along so its narrative survives a degraded re-resolution.
func (s *Selection) Select(ctx context.Context, customerID string) (advisory.AdvisoryView, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	var prev *advisory.AdvisoryView
	if s.customerID == customerID && s.view != nil {
		v := s.view.Clone()
		prev = &v
	} else {
		s.view = nil
	}
	s.customerID = customerID
	cached := slices.Clone(s.cached)
	s.mu.Unlock()
	defer cancel()

	view := s.resolver.Resolve(ctx, customerID, Options{Cached: cached, Previous: prev})

	if s.delay > 0 && view.Narrative.Source == advisory.SourceSynthetic {
		t := time.NewTimer(s.delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			if !s.isCurrent(gen) {
				return advisory.AdvisoryView{}, ErrSuperseded
			}
			return advisory.AdvisoryView{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen || s.customerID != customerID {
		return advisory.AdvisoryView{}, ErrSuperseded
	}
	// A view resolved under a cancelled context reflects the caller going
	// away, not the data service.
	if err := ctx.Err(); err != nil {
		return advisory.AdvisoryView{}, err
	}
	stored := view.Clone()
	s.view = &stored
	return view, nil
}

// Current returns a copy of the current view, if one has been resolved.
func (s *Selection) Current() (advisory.AdvisoryView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == nil {
		return advisory.AdvisoryView{}, false
	}
	return s.view.Clone(), true
}

// SetCached replaces the candidate list used for cached reconstruction.
func (s *Selection) SetCached(cands []advisory.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = slices.Clone(cands)
}

// Close cancels any in-flight resolution.
func (s *Selection) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Selection) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == gen
}
