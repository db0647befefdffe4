package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nyashahama/advisory-drafting-backend/internal/advisory"
	"github.com/nyashahama/advisory-drafting-backend/internal/resolver"
)

// ─── SESSION REGISTRY ─────────────────────────────────────────────────────────

// advisorSession is one advisor's working state: the selected customer and
// the draft being edited for them.
type advisorSession struct {
	id        uuid.UUID
	selection *resolver.Selection

	mu       sync.Mutex
	draft    *advisory.DraftMessage
	lastSeen time.Time
}

func (a *advisorSession) currentDraft() (advisory.DraftMessage, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.draft == nil {
		return advisory.DraftMessage{}, false
	}
	return *a.draft, true
}

func (a *advisorSession) setDraft(d *advisory.DraftMessage) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft = d
}

// sessionRegistry holds live sessions in memory. Expired sessions are
// dropped lazily on lookup and on create.
type sessionRegistry struct {
	resolver *resolver.Resolver
	delay    time.Duration
	ttl      time.Duration
	now      func() time.Time

	mu   sync.Mutex
	byID map[uuid.UUID]*advisorSession
}

func newSessionRegistry(r *resolver.Resolver, delay, ttl time.Duration) *sessionRegistry {
	return &sessionRegistry{
		resolver: r,
		delay:    delay,
		ttl:      ttl,
		now:      time.Now,
		byID:     make(map[uuid.UUID]*advisorSession),
	}
}

func (reg *sessionRegistry) create() *advisorSession {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.sweepLocked()

	sess := &advisorSession{
		id:        uuid.New(),
		selection: resolver.NewSelection(reg.resolver, reg.delay),
		lastSeen:  reg.now(),
	}
	reg.byID[sess.id] = sess
	return sess
}

// get returns the session and refreshes its idle timer.
func (reg *sessionRegistry) get(id uuid.UUID) (*advisorSession, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	sess, ok := reg.byID[id]
	if !ok {
		return nil, false
	}
	now := reg.now()
	sess.mu.Lock()
	expired := now.Sub(sess.lastSeen) > reg.ttl
	if !expired {
		sess.lastSeen = now
	}
	sess.mu.Unlock()

	if expired {
		reg.dropLocked(sess)
		return nil, false
	}
	return sess, true
}

func (reg *sessionRegistry) sweepLocked() {
	now := reg.now()
	for _, sess := range reg.byID {
		sess.mu.Lock()
		expired := now.Sub(sess.lastSeen) > reg.ttl
		sess.mu.Unlock()
		if expired {
			reg.dropLocked(sess)
		}
	}
}

func (reg *sessionRegistry) dropLocked(sess *advisorSession) {
	sess.selection.Close()
	delete(reg.byID, sess.id)
}

// ─── POST /api/sessions ───────────────────────────────────────────────────────

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.create()
	s.logger.Debug("session: created", "session_id", sess.id, logField(r))
	respond(w, http.StatusCreated, createSessionResponse{SessionID: sess.id.String()})
}

// ─── POST /api/sessions/{sessionID}/select ────────────────────────────────────

type selectRequest struct {
	CustomerID string `json:"customer_id"`
}

// handleSelect makes a customer the session's current selection and returns
// the resolved view. A request overtaken by a newer selection on the same
// session gets 409 and its result is discarded.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	var req selectRequest
	if !decode(w, r, &req) {
		return
	}
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		respondErr(w, http.StatusBadRequest, "customer_id is required")
		return
	}

	view, err := sess.selection.Select(r.Context(), customerID)
	switch {
	case errors.Is(err, resolver.ErrSuperseded):
		respondErr(w, http.StatusConflict, "selection superseded by a newer request")
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.logger.Info("select: request ended before resolution", "customer_id", customerID, "error", err, logField(r))
		respondErr(w, http.StatusGatewayTimeout, "selection did not complete")
		return
	case err != nil:
		s.respondInternalErr(w, r, err)
		return
	}

	// A draft belongs to one customer; switching customers discards it.
	if d, ok := sess.currentDraft(); ok && d.CustomerID != view.Customer.CustomerID {
		sess.setDraft(nil)
	}

	respond(w, http.StatusOK, view)
}

// ─── PUT /api/sessions/{sessionID}/candidates ─────────────────────────────────

type setCandidatesRequest struct {
	Candidates []advisory.Candidate `json:"candidates"`
}

type setCandidatesResponse struct {
	Cached int `json:"cached"`
}

// handleSetCandidates stores the broader candidate list the advisor is
// viewing, used to rebuild a customer when the detail lookup fails.
func (s *Server) handleSetCandidates(w http.ResponseWriter, r *http.Request) {
	var req setCandidatesRequest
	if !decode(w, r, &req) {
		return
	}
	sessionFrom(r).selection.SetCached(req.Candidates)
	respond(w, http.StatusOK, setCandidatesResponse{Cached: len(req.Candidates)})
}
