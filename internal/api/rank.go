package api

import (
	"net/http"

	"github.com/nyashahama/advisory-drafting-backend/internal/advisory"
	"github.com/nyashahama/advisory-drafting-backend/internal/ranking"
)

// ─── POST /api/rank ───────────────────────────────────────────────────────────

type rankRequest struct {
	Candidates []advisory.Candidate `json:"candidates"`
	Mode       string               `json:"mode"`
	Filter     ranking.FilterState  `json:"filter"`
}

type rankResponse struct {
	Mode  ranking.Mode   `json:"mode"`
	Items []ranking.Item `json:"items"`
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if !decode(w, r, &req) {
		return
	}
	mode, err := ranking.ParseMode(req.Mode)
	if err != nil {
		respondErr(w, http.StatusBadRequest, err.Error())
		return
	}
	ranked, err := ranking.Rank(req.Candidates, mode, req.Filter)
	if err != nil {
		respondErr(w, http.StatusBadRequest, err.Error())
		return
	}
	respond(w, http.StatusOK, rankResponse{Mode: mode, Items: ranking.Items(ranked)})
}

// ─── POST /api/compliance/evaluate ────────────────────────────────────────────

type evaluateRequest struct {
	Body string `json:"body"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decode(w, r, &req) {
		return
	}
	respond(w, http.StatusOK, s.compliance.Evaluate(req.Body))
}
