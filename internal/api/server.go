// Package api implements the HTTP layer for the advisory drafting service.
// Handlers are methods on *Server. Each handler file is responsible for one
// resource group and only uses the dependencies it needs.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nyashahama/advisory-drafting-backend/internal/compliance"
	"github.com/nyashahama/advisory-drafting-backend/internal/exemplar"
	"github.com/nyashahama/advisory-drafting-backend/internal/resolver"
	"github.com/nyashahama/advisory-drafting-backend/internal/synth"
	"github.com/nyashahama/advisory-drafting-backend/internal/worker"
)

// Config holds values read from environment variables at startup.
type Config struct {
	// Env is "production", "staging", or "development".
	Env string

	// ThinkingDelay is the pause before a synthesized narrative is returned
	// from a session selection.
	ThinkingDelay time.Duration

	// SessionTTL is how long an idle advisor session is kept.
	SessionTTL time.Duration
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Resolver   *resolver.Resolver
	Synth      *synth.Synthesizer
	Compliance *compliance.Engine
	Exemplars  *exemplar.Library
	Deliveries *worker.Deliveries
	Worker     worker.Enqueuer
}

// Server holds all shared dependencies.
type Server struct {
	resolver   *resolver.Resolver
	synth      *synth.Synthesizer
	compliance *compliance.Engine
	exemplars  *exemplar.Library
	deliveries *worker.Deliveries

	// worker enqueues outreach deliveries after a draft is approved.
	worker worker.Enqueuer

	sessions *sessionRegistry

	cfg    Config
	logger *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.Server.
func NewServer(deps Deps, cfg Config, logger *slog.Logger) http.Handler {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	s := &Server{
		resolver:   deps.Resolver,
		synth:      deps.Synth,
		compliance: deps.Compliance,
		exemplars:  deps.Exemplars,
		deliveries: deps.Deliveries,
		worker:     deps.Worker,
		sessions:   newSessionRegistry(deps.Resolver, cfg.ThinkingDelay, cfg.SessionTTL),
		cfg:        cfg,
		logger:     logger,
	}

	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)
	r.Use(middleware.Timeout(30 * time.Second))

	// ── Health ────────────────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {

		// Stateless resolution and screening.
		r.Get("/customers/{customerID}/view", s.handleCustomerView)
		r.Post("/rank", s.handleRank)
		r.Post("/compliance/evaluate", s.handleEvaluate)

		// Advisor sessions: current selection and draft.
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Use(s.requireSession)
			r.Post("/select", s.handleSelect)
			r.Put("/candidates", s.handleSetCandidates)
			r.Post("/draft", s.handleComposeDraft)
			r.Patch("/draft", s.handleEditDraft)
			r.Post("/draft/disclaimer", s.handleApplyDisclaimer)
			r.Post("/draft/send", s.handleSendDraft)
		})

		// Exemplar library.
		r.Get("/exemplars", s.handleListExemplars)
		r.Post("/exemplars", s.handleAddExemplar)
		r.Delete("/exemplars/{exemplarID}", s.handleDeleteExemplar)

		// Outreach delivery status.
		r.Get("/outreach/{deliveryID}", s.handleGetOutreach)
	})

	return r
}
