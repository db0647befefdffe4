package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nyashahama/advisory-drafting-backend/internal/worker"
)

// ─── GET /api/outreach/{deliveryID} ───────────────────────────────────────────

func (s *Server) handleGetOutreach(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "deliveryID"))
	if err != nil {
		respondErr(w, http.StatusNotFound, "delivery not found")
		return
	}
	rec, err := s.deliveries.Get(r.Context(), id)
	if errors.Is(err, worker.ErrDeliveryNotFound) {
		respondErr(w, http.StatusNotFound, "delivery not found")
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, rec)
}
