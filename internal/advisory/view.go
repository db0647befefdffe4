package advisory

import "slices"

// NarrativeSource tags where a narrative came from. Preservation decisions
// (anti-flicker) are made on this tag, never on the narrative text.
type NarrativeSource string

const (
	SourcePrimary     NarrativeSource = "primary"
	SourceSynthetic   NarrativeSource = "synthetic"
	SourcePlaceholder NarrativeSource = "placeholder"
)

// PlaceholderSummary is the fixed text shown when nothing could be resolved.
const PlaceholderSummary = "Recommendation details are not available for this customer yet. Please check back after the next batch run."

// Narrative is the explanation shown next to the recommended service.
type Narrative struct {
	Summary               string          `json:"summary"`
	ClusterInterpretation string          `json:"cluster_interpretation,omitempty"`
	KeyBenefits           []string        `json:"key_benefits,omitempty"`
	Source                NarrativeSource `json:"source"`
}

// PlaceholderNarrative returns the fixed placeholder narrative.
func PlaceholderNarrative() Narrative {
	return Narrative{Summary: PlaceholderSummary, Source: SourcePlaceholder}
}

// IsPlaceholder reports whether the narrative carries no real content.
func (n Narrative) IsPlaceholder() bool {
	return n.Source == SourcePlaceholder || n.Source == ""
}

// ResolutionState describes how much of the view came from the primary source.
type ResolutionState string

const (
	StateResolved    ResolutionState = "resolved"
	StateDegraded    ResolutionState = "degraded"
	StateUnavailable ResolutionState = "unavailable"
)

// AdvisoryView is the render-ready bundle for one selected customer. It is
// created fresh per selection and replaced, never mutated, when the selection
// changes.
type AdvisoryView struct {
	Customer        CustomerSnapshot     `json:"customer"`
	Candidates      []Candidate          `json:"candidates"`
	Portfolio       *PortfolioFitProfile `json:"portfolio,omitempty"`
	PortfolioSource NarrativeSource      `json:"portfolio_source,omitempty"`
	Narrative       Narrative            `json:"narrative"`
	State           ResolutionState      `json:"resolution_state"`
}

// Top returns the view's top candidate.
func (v AdvisoryView) Top() (Candidate, bool) {
	return TopCandidate(v.Candidates)
}

// Candidate returns the candidate with the given product code, or the top
// candidate when code is empty.
func (v AdvisoryView) Candidate(productCode string) (Candidate, bool) {
	if productCode == "" {
		return v.Top()
	}
	for _, c := range v.Candidates {
		if c.ProductCode == productCode {
			return c, true
		}
	}
	return Candidate{}, false
}

// Clone returns a deep copy so the holder can hand the view out without
// sharing slices or maps with it.
func (v AdvisoryView) Clone() AdvisoryView {
	out := v
	out.Candidates = slices.Clone(v.Candidates)
	if out.Candidates == nil {
		out.Candidates = []Candidate{}
	}
	out.Narrative.KeyBenefits = slices.Clone(v.Narrative.KeyBenefits)
	if v.Portfolio != nil {
		p := PortfolioFitProfile{Current: v.Portfolio.Current.clone(), Ideal: v.Portfolio.Ideal.clone()}
		out.Portfolio = &p
	}
	return out
}
