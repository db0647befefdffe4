package synth

import (
	"fmt"
	"strings"

	"github.com/nyashahama/advisory-drafting-backend/internal/advisory"
	"github.com/nyashahama/advisory-drafting-backend/internal/scoring"
)

// Synthesizer produces fallback portfolio profiles and narratives from the
// persona table. The zero value is not usable; call New.
type Synthesizer struct {
	byCluster map[int]Persona
	fallback  Persona
}

// New returns a Synthesizer over the built-in six-persona table.
func New() *Synthesizer {
	byCluster := make(map[int]Persona, len(personas))
	for _, p := range personas {
		byCluster[p.ClusterID] = p
	}
	return &Synthesizer{byCluster: byCluster, fallback: defaultPersona}
}

// Persona returns the persona for clusterID. Unknown or nil ids map to the
// default persona.
func (s *Synthesizer) Persona(clusterID *int) Persona {
	if clusterID == nil {
		return s.fallback
	}
	if p, ok := s.byCluster[*clusterID]; ok {
		return p
	}
	return s.fallback
}

// Personas returns the cluster personas in cluster order, without the default.
func (s *Synthesizer) Personas() []Persona {
	out := make([]Persona, 0, len(personas))
	for _, p := range personas {
		out = append(out, s.byCluster[p.ClusterID])
	}
	return out
}

// LeadBenefit returns the benefit a draft for view should lead with: the
// first key benefit of its narrative, or the persona's first benefit when the
// narrative has none.
func (s *Synthesizer) LeadBenefit(view advisory.AdvisoryView) string {
	if len(view.Narrative.KeyBenefits) > 0 {
		return view.Narrative.KeyBenefits[0]
	}
	if p := s.Persona(view.Customer.ClusterID); len(p.Benefits) > 0 {
		return p.Benefits[0]
	}
	return ""
}

// Portfolio returns a synthetic profile: the persona's ideal allocation
// against a flat baseline for the current side, so the fallback reads as
// "unknown" rather than as invented precision.
func (s *Synthesizer) Portfolio(clusterID *int) *advisory.PortfolioFitProfile {
	p := s.Persona(clusterID)

	current := make(advisory.Allocation, len(advisory.Categories))
	ideal := make(advisory.Allocation, len(advisory.Categories))
	for _, c := range advisory.Categories {
		current[c] = baselineValue
		ideal[c] = p.Ideal[c]
	}
	return &advisory.PortfolioFitProfile{Current: current, Ideal: ideal}
}

// openers are picked by a stable index over (customer, product, persona).
// Each takes the customer name then the product name.
var openers = []string{
	"Based on %s's profile, %s is a strong next step.",
	"For %s, %s stands out as the most relevant service right now.",
	"%s's recent activity points to %s as a natural fit.",
}

// Narrative returns a templated explanation of why productName suits the
// customer. Identical inputs always give the identical narrative.
func (s *Synthesizer) Narrative(productName string, clusterID *int, customerName string) advisory.Narrative {
	p := s.Persona(clusterID)

	product := strings.TrimSpace(productName)
	if product == "" {
		product = "a tailored service"
	}
	name := strings.TrimSpace(customerName)
	if name == "" {
		name = "This customer"
	}

	key := name + "|" + product + "|" + p.Label
	opener := openers[scoring.IndexOf(key, len(openers))]

	category := advisory.CategorizeProduct(product)
	benefits := make([]string, 0, 4)
	benefits = append(benefits, productBenefits[category]...)
	benefits = append(benefits, p.Benefits[0])

	return advisory.Narrative{
		Summary:               fmt.Sprintf(opener, name, product) + " " + p.Focus,
		ClusterInterpretation: fmt.Sprintf("%s: %s", p.Label, p.Interpretation),
		KeyBenefits:           benefits,
		Source:                advisory.SourceSynthetic,
	}
}
