// Package resolver assembles the AdvisoryView for one customer. It queries the
// data service first, rebuilds from cached list data when that fails, and
// finally returns a placeholder view. Resolve never returns an error: every
// upstream failure is logged and turned into the next fallback step.
package resolver

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nyashahama/advisory-drafting-backend/internal/advisory"
	"github.com/nyashahama/advisory-drafting-backend/internal/datasource"
	"github.com/nyashahama/advisory-drafting-backend/internal/synth"
)

// clusterSummaryTimeout bounds the one-off batch summary fetch.
const clusterSummaryTimeout = 5 * time.Second

// Options carries caller-held state that feeds the fallback chain.
type Options struct {
	// Cached is any candidate list the caller already holds for a broader
	// view. Rows for other customers are ignored.
	Cached []advisory.Candidate

	// Previous is the view last displayed for the customer. Its narrative is
	// kept when the new resolution would only produce a placeholder.
	Previous *advisory.AdvisoryView
}

// Resolver orchestrates the lookup chain. It is safe for concurrent use.
type Resolver struct {
	source datasource.Source
	synth  *synth.Synthesizer
	logger *slog.Logger

	// flights shares one upstream fetch between concurrent resolutions of the
	// same customer.
	flights singleflight.Group

	summaryOnce sync.Once
	summary     datasource.ClusterSummary
	summaryOK   bool
}

// New constructs a Resolver.
func New(source datasource.Source, s *synth.Synthesizer, logger *slog.Logger) *Resolver {
	return &Resolver{
		source: source,
		synth:  s,
		logger: logger,
	}
}

// primaryResult is what one upstream round trip produced.
type primaryResult struct {
	detail  datasource.Detail
	list    []advisory.Candidate
	listErr error
}

// Resolve returns the view for customerID. Steps run strictly in order and
// each only when the previous one produced nothing usable:
//
//  1. Primary source: detail + candidate list.
//  2. Rebuild from opts.Cached rows for this customer.
//  3. Placeholder view with resolution state "unavailable".
//
// Missing portfolio or narrative content is synthesized and tagged. Finally
// the previous narrative for the same customer is kept if the new one is only
// a placeholder.
func (r *Resolver) Resolve(ctx context.Context, customerID string, opts Options) advisory.AdvisoryView {
	customerID = strings.TrimSpace(customerID)
	log := r.logger.With("customer_id", customerID)

	view, ok := r.fromPrimary(ctx, customerID, log)
	if !ok {
		view, ok = r.fromCache(ctx, customerID, opts.Cached, log)
	}
	if !ok {
		log.Warn("resolver: no usable data, returning placeholder view", "step", "unavailable")
		view = unavailableView(customerID)
	}

	return keepPreviousNarrative(view, opts.Previous)
}

// ─── STEP 1: PRIMARY ──────────────────────────────────────────────────────────

func (r *Resolver) fromPrimary(ctx context.Context, customerID string, log *slog.Logger) (advisory.AdvisoryView, bool) {
	if customerID == "" {
		return advisory.AdvisoryView{}, false
	}

	res, err := r.fetch(ctx, customerID)
	if err != nil {
		log.Warn("resolver: primary source failed, trying cached candidates",
			"step", "primary",
			"error_kind", datasource.Kind(err),
			"error", err,
		)
		return advisory.AdvisoryView{}, false
	}

	if res.detail.Snapshot.CustomerID != customerID {
		log.Warn("resolver: primary snapshot is for a different customer, trying cached candidates",
			"step", "primary",
			"error_kind", "shape",
			"snapshot_customer_id", res.detail.Snapshot.CustomerID,
		)
		return advisory.AdvisoryView{}, false
	}

	state := advisory.StateResolved
	if res.listErr != nil {
		log.Warn("resolver: candidate list failed, using headline recommendation only",
			"step", "primary",
			"error_kind", datasource.Kind(res.listErr),
			"error", res.listErr,
		)
		state = advisory.StateDegraded
	}

	extra := []advisory.Candidate{}
	if res.detail.RecommendedService != nil {
		extra = append(extra, *res.detail.RecommendedService)
	}
	cands := mergeCandidates(customerID, res.list, extra)
	if len(cands) == 0 {
		log.Warn("resolver: primary record has no candidates, trying cached candidates",
			"step", "primary",
			"error_kind", "shape",
		)
		return advisory.AdvisoryView{}, false
	}

	snap := *res.detail.Snapshot
	snap.ClusterLabel = r.clusterLabel(ctx, snap)

	view := advisory.AdvisoryView{
		Customer:   snap,
		Candidates: cands,
		State:      state,
	}

	if res.detail.Portfolio != nil {
		view.Portfolio = res.detail.Portfolio
		view.PortfolioSource = advisory.SourcePrimary
	} else {
		view.Portfolio = r.synth.Portfolio(snap.ClusterID)
		view.PortfolioSource = advisory.SourceSynthetic
	}

	view.Narrative = r.narrative(res.detail.Explanation, view)
	return view, true
}

// fetch runs the upstream round trip, sharing it with any concurrent caller
// for the same customer. The shared call is detached from the caller's
// cancellation so one abandoned selection cannot fail the others; callers
// still stop waiting as soon as their own ctx is done.
func (r *Resolver) fetch(ctx context.Context, customerID string) (primaryResult, error) {
	ch := r.flights.DoChan(customerID, func() (any, error) {
		fctx := context.WithoutCancel(ctx)

		detail, err := r.source.GetDetail(fctx, customerID)
		if err != nil {
			return nil, err
		}
		if detail.Snapshot == nil || strings.TrimSpace(detail.Snapshot.CustomerID) == "" {
			return nil, &datasource.ShapeError{Op: "get detail", Reason: "missing snapshot"}
		}

		list, listErr := r.source.ListCandidates(fctx, customerID)
		return primaryResult{detail: detail, list: list, listErr: listErr}, nil
	})

	select {
	case <-ctx.Done():
		return primaryResult{}, &datasource.TransportError{Op: "resolve", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return primaryResult{}, res.Err
		}
		return res.Val.(primaryResult), nil
	}
}

// ─── STEP 2: CACHED CANDIDATES ────────────────────────────────────────────────

func (r *Resolver) fromCache(ctx context.Context, customerID string, cached []advisory.Candidate, log *slog.Logger) (advisory.AdvisoryView, bool) {
	if customerID == "" {
		return advisory.AdvisoryView{}, false
	}

	cands := mergeCandidates(customerID, nil, cached)
	if len(cands) == 0 {
		return advisory.AdvisoryView{}, false
	}

	snap := advisory.CustomerSnapshot{CustomerID: customerID}
	for _, c := range cands {
		if snap.DisplayName == "" && strings.TrimSpace(c.CustomerName) != "" {
			snap.DisplayName = c.CustomerName
		}
		if snap.ClusterID == nil && c.ClusterID != nil {
			id := *c.ClusterID
			snap.ClusterID = &id
		}
		if snap.ClusterLabel == "" {
			snap.ClusterLabel = c.ClusterLabel
		}
		if snap.Segment == "" {
			snap.Segment = c.Segment
		}
	}
	if snap.DisplayName == "" {
		snap.DisplayName = customerID
	}
	snap.ClusterLabel = r.clusterLabel(ctx, snap)

	log.Info("resolver: rebuilt view from cached candidates", "step", "cached", "candidates", len(cands))

	view := advisory.AdvisoryView{
		Customer:        snap,
		Candidates:      cands,
		Portfolio:       r.synth.Portfolio(snap.ClusterID),
		PortfolioSource: advisory.SourceSynthetic,
		State:           advisory.StateDegraded,
	}
	view.Narrative = r.narrative(nil, view)
	return view, true
}

// ─── STEP 3: PLACEHOLDER ──────────────────────────────────────────────────────

func unavailableView(customerID string) advisory.AdvisoryView {
	return advisory.AdvisoryView{
		Customer: advisory.CustomerSnapshot{
			CustomerID:  customerID,
			DisplayName: customerID,
		},
		Candidates: []advisory.Candidate{},
		Narrative:  advisory.PlaceholderNarrative(),
		State:      advisory.StateUnavailable,
	}
}

// ─── HELPERS ──────────────────────────────────────────────────────────────────

// narrative prefers the batch explanation, then the top candidate's own text,
// then a synthesized narrative for the top candidate.
func (r *Resolver) narrative(expl *datasource.Explanation, view advisory.AdvisoryView) advisory.Narrative {
	if expl != nil && strings.TrimSpace(expl.Summary) != "" {
		return advisory.Narrative{
			Summary:               strings.TrimSpace(expl.Summary),
			ClusterInterpretation: expl.ClusterInterpretation,
			KeyBenefits:           slices.Clone(expl.KeyBenefits),
			Source:                advisory.SourcePrimary,
		}
	}

	top, ok := view.Top()
	if !ok {
		return advisory.PlaceholderNarrative()
	}
	if top.Narrative != "" {
		return advisory.Narrative{Summary: top.Narrative, Source: advisory.SourcePrimary}
	}
	return r.synth.Narrative(top.ProductName(), view.Customer.ClusterID, view.Customer.Name())
}

// clusterLabel returns the snapshot's own label, else the batch summary's
// label, else the persona label.
func (r *Resolver) clusterLabel(ctx context.Context, snap advisory.CustomerSnapshot) string {
	if snap.ClusterLabel != "" {
		return snap.ClusterLabel
	}
	if snap.ClusterID != nil {
		if sum, ok := r.clusterSummary(ctx); ok {
			if label := sum.Label(*snap.ClusterID); label != "" {
				return label
			}
		}
	}
	return r.synth.Persona(snap.ClusterID).Label
}

// clusterSummary fetches the batch summary once per Resolver. A failed fetch
// is not retried.
func (r *Resolver) clusterSummary(ctx context.Context) (datasource.ClusterSummary, bool) {
	r.summaryOnce.Do(func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), clusterSummaryTimeout)
		defer cancel()

		sum, err := r.source.GetClusterSummary(sctx)
		if err != nil {
			r.logger.Warn("resolver: cluster summary unavailable, using persona labels",
				"error_kind", datasource.Kind(err),
				"error", err,
			)
			return
		}
		r.summary, r.summaryOK = sum, true
	})
	return r.summary, r.summaryOK
}

// mergeCandidates returns the candidates for customerID from primary then
// extra, with blank or duplicate ids dropped (first occurrence wins).
func mergeCandidates(customerID string, primary, extra []advisory.Candidate) []advisory.Candidate {
	out := make([]advisory.Candidate, 0, len(primary)+len(extra))
	seen := make(map[string]struct{}, len(primary)+len(extra))

	for _, group := range [][]advisory.Candidate{primary, extra} {
		for _, c := range group {
			if c.ID == "" {
				continue
			}
			if c.CustomerID != "" && c.CustomerID != customerID {
				continue
			}
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			c.CustomerID = customerID
			out = append(out, c)
		}
	}
	return out
}

// keepPreviousNarrative applies the anti-flicker rule: within one customer a
// real narrative is never downgraded to a placeholder.
func keepPreviousNarrative(view advisory.AdvisoryView, prev *advisory.AdvisoryView) advisory.AdvisoryView {
	if prev == nil || prev.Customer.CustomerID != view.Customer.CustomerID {
		return view
	}
	if prev.Narrative.IsPlaceholder() || !view.Narrative.IsPlaceholder() {
		return view
	}
	kept := prev.Narrative
	kept.KeyBenefits = slices.Clone(prev.Narrative.KeyBenefits)
	view.Narrative = kept
	return view
}
