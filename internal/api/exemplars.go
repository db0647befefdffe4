package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nyashahama/advisory-drafting-backend/internal/advisory"
	"github.com/nyashahama/advisory-drafting-backend/internal/exemplar"
)

// ─── GET /api/exemplars ───────────────────────────────────────────────────────

type exemplarView struct {
	advisory.Exemplar
	BuiltIn bool `json:"built_in"`
}

func (s *Server) handleListExemplars(w http.ResponseWriter, r *http.Request) {
	list := s.exemplars.List()
	out := make([]exemplarView, 0, len(list))
	for _, ex := range list {
		out = append(out, exemplarView{Exemplar: ex, BuiltIn: exemplar.IsBuiltIn(ex.ID)})
	}
	respond(w, http.StatusOK, out)
}

// ─── POST /api/exemplars ──────────────────────────────────────────────────────

type addExemplarRequest struct {
	Category  string `json:"category"`
	Situation string `json:"situation"`
	Response  string `json:"response"`
	Tone      string `json:"tone"`
	Service   string `json:"service"`
}

type addExemplarResponse struct {
	Exemplar  advisory.Exemplar `json:"exemplar"`
	Persisted bool              `json:"persisted"`
}

// handleAddExemplar adds an advisor exemplar. A storage failure does not fail
// the request: the exemplar is usable for this process and persisted=false
// tells the client it will not survive a restart.
func (s *Server) handleAddExemplar(w http.ResponseWriter, r *http.Request) {
	var req addExemplarRequest
	if !decode(w, r, &req) {
		return
	}

	added, err := s.exemplars.Add(r.Context(), advisory.Exemplar{
		Category:  req.Category,
		Situation: req.Situation,
		Response:  req.Response,
		Tone:      advisory.Tone(req.Tone),
		Service:   req.Service,
	})
	var pe *exemplar.PersistenceError
	switch {
	case errors.Is(err, exemplar.ErrInvalid):
		respondErr(w, http.StatusBadRequest, err.Error())
		return
	case errors.As(err, &pe):
		respond(w, http.StatusCreated, addExemplarResponse{Exemplar: added, Persisted: false})
		return
	case err != nil:
		s.respondInternalErr(w, r, err)
		return
	}
	respond(w, http.StatusCreated, addExemplarResponse{Exemplar: added, Persisted: true})
}

// ─── DELETE /api/exemplars/{exemplarID} ───────────────────────────────────────

func (s *Server) handleDeleteExemplar(w http.ResponseWriter, r *http.Request) {
	err := s.exemplars.Delete(r.Context(), chi.URLParam(r, "exemplarID"))
	var pe *exemplar.PersistenceError
	switch {
	case err == nil, errors.As(err, &pe):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, exemplar.ErrBuiltIn):
		respondErr(w, http.StatusForbidden, "built-in exemplars cannot be deleted")
	case errors.Is(err, exemplar.ErrNotFound):
		respondErr(w, http.StatusNotFound, "exemplar not found")
	default:
		s.respondInternalErr(w, r, err)
	}
}
