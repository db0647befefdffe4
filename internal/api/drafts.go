package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/nyashahama/advisory-drafting-backend/internal/advisory"
	"github.com/nyashahama/advisory-drafting-backend/internal/compliance"
	"github.com/nyashahama/advisory-drafting-backend/internal/email"
	"github.com/nyashahama/advisory-drafting-backend/internal/worker"
)

// ─── POST /api/sessions/{sessionID}/draft ─────────────────────────────────────

type composeRequest struct {
	Tone        string `json:"tone"`
	ProductCode string `json:"product_code"`
}

// handleComposeDraft builds a fresh draft for the selected customer. Any
// previous draft, including manual edits, is replaced.
func (s *Server) handleComposeDraft(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	var req composeRequest
	if !decode(w, r, &req) {
		return
	}
	tone, err := advisory.ParseTone(req.Tone)
	if err != nil {
		respondErr(w, http.StatusBadRequest, err.Error())
		return
	}

	view, ok := sess.selection.Current()
	if !ok {
		respondErr(w, http.StatusConflict, "no customer selected")
		return
	}
	cand, ok := view.Candidate(strings.TrimSpace(req.ProductCode))
	if !ok {
		respondErr(w, http.StatusUnprocessableEntity, "no matching candidate for the selected customer")
		return
	}

	persona := s.synth.Persona(view.Customer.ClusterID)

	draft := s.compliance.Compose(compliance.DraftContext{
		Customer:        view.Customer,
		Candidate:       cand,
		Tone:            tone,
		ClusterCategory: persona.Category,
		Benefit:         s.synth.LeadBenefit(view),
	}, s.exemplars.List())

	sess.setDraft(&draft)
	respond(w, http.StatusCreated, draft)
}

// ─── PATCH /api/sessions/{sessionID}/draft ────────────────────────────────────

type editRequest struct {
	Body string `json:"body"`
}

func (s *Server) handleEditDraft(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	var req editRequest
	if !decode(w, r, &req) {
		return
	}
	current, ok := sess.currentDraft()
	if !ok {
		respondErr(w, http.StatusNotFound, "no draft for this session")
		return
	}

	next := s.compliance.Edit(current, req.Body)
	sess.setDraft(&next)
	respond(w, http.StatusOK, next)
}

// ─── POST /api/sessions/{sessionID}/draft/disclaimer ──────────────────────────

func (s *Server) handleApplyDisclaimer(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	current, ok := sess.currentDraft()
	if !ok {
		respondErr(w, http.StatusNotFound, "no draft for this session")
		return
	}

	next := s.compliance.ApplyDisclaimer(current)
	sess.setDraft(&next)
	respond(w, http.StatusOK, next)
}

// ─── POST /api/sessions/{sessionID}/draft/send ────────────────────────────────

type sendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
}

type sendRefusedResponse struct {
	Error  string                    `json:"error"`
	Result advisory.ComplianceResult `json:"compliance"`
}

type sendResponse struct {
	DeliveryID string        `json:"delivery_id"`
	Status     worker.Status `json:"status"`
}

// handleSendDraft queues the current draft for delivery. Blocked and empty
// drafts are refused with 422; warned drafts may be sent.
func (s *Server) handleSendDraft(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	var req sendRequest
	if !decode(w, r, &req) {
		return
	}
	to := strings.TrimSpace(req.To)
	if to == "" || !strings.Contains(to, "@") {
		respondErr(w, http.StatusBadRequest, "a valid recipient address is required")
		return
	}

	draft, ok := sess.currentDraft()
	if !ok {
		respondErr(w, http.StatusNotFound, "no draft for this session")
		return
	}

	if err := s.compliance.CanSend(draft); err != nil {
		msg := "draft cannot be sent"
		switch {
		case errors.Is(err, compliance.ErrBlocked):
			msg = "draft contains prohibited language"
		case errors.Is(err, compliance.ErrEmptyDraft):
			msg = "draft is empty"
		}
		respond(w, http.StatusUnprocessableEntity, sendRefusedResponse{
			Error:  msg,
			Result: s.compliance.Evaluate(draft.Body),
		})
		return
	}

	rec, err := s.deliveries.Create(r.Context(), email.OutreachParams{
		To:           to,
		CustomerName: draft.CustomerName,
		ProductName:  draft.ProductName,
		Subject:      strings.TrimSpace(req.Subject),
		Body:         draft.Body,
	})
	if err != nil {
		s.respondInternalErr(w, r, err)
		return
	}

	if err := s.worker.Enqueue(r.Context(), rec.ID); err != nil {
		s.logger.Error("send: enqueue failed", "delivery_id", rec.ID, "error", err, logField(r))
		if _, markErr := s.deliveries.MarkFailed(r.Context(), rec.ID, err.Error()); markErr != nil {
			s.logger.Error("send: could not mark delivery failed", "delivery_id", rec.ID, "error", markErr, logField(r))
		}
		respondErr(w, http.StatusServiceUnavailable, "delivery queue is busy, try again shortly")
		return
	}

	respond(w, http.StatusAccepted, sendResponse{DeliveryID: rec.ID.String(), Status: rec.Status})
}
