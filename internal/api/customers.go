package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nyashahama/advisory-drafting-backend/internal/advisory"
	"github.com/nyashahama/advisory-drafting-backend/internal/resolver"
)

// ─── GET /api/customers/{customerID}/view ─────────────────────────────────────

// handleCustomerView resolves one customer without touching any session. The
// response is always a Result envelope: a failure while building the view is
// reported as an error panel rather than a 500.
func (s *Server) handleCustomerView(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")
	respond(w, http.StatusOK, s.renderView(r, customerID))
}

func (s *Server) renderView(r *http.Request, customerID string) (res advisory.Result[advisory.AdvisoryView]) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("view: render panicked",
				"customer_id", customerID,
				"panic", fmt.Sprint(rec),
				logField(r),
			)
			res = advisory.Failed[advisory.AdvisoryView]("render_failed",
				"This customer's recommendation could not be displayed.")
		}
	}()
	return advisory.OK(s.resolver.Resolve(r.Context(), customerID, resolver.Options{}))
}
