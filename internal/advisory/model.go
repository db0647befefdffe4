// Package advisory holds the value types shared by the resolution, ranking and
// drafting pipeline. Every type here is replaced as a whole value by its owner;
// nothing in this package mutates a value after construction.
//
// Dependency rule: advisory imports nothing from internal/.
package advisory

import (
	"fmt"
	"strings"
)

// ─── CUSTOMER ─────────────────────────────────────────────────────────────────

// CustomerSnapshot is the identity and demographic record for one customer.
// It is replaced wholesale on re-resolution, never patched field by field.
type CustomerSnapshot struct {
	CustomerID   string `json:"customer_id"`
	DisplayName  string `json:"display_name"`
	ClusterID    *int   `json:"cluster_id,omitempty"`
	ClusterLabel string `json:"cluster_label,omitempty"`
	Segment      string `json:"segment,omitempty"`
	Profession   string `json:"profession,omitempty"`
	AgeRange     string `json:"age_range,omitempty"`
	ExactAge     *int   `json:"exact_age,omitempty"`
	Gender       string `json:"gender,omitempty"`
}

// Name returns the display name, or the customer id when no name is known.
func (s CustomerSnapshot) Name() string {
	if strings.TrimSpace(s.DisplayName) != "" {
		return s.DisplayName
	}
	return s.CustomerID
}

// ─── CANDIDATES ───────────────────────────────────────────────────────────────

// Candidate is one product suggestion for one customer.
//
// CustomerName, ClusterID, ClusterLabel and Segment are denormalized copies
// carried by list views. They are optional and exist so a snapshot can be
// rebuilt from a broader list when the detail lookup fails.
type Candidate struct {
	ID                    string   `json:"id"`
	CustomerID            string   `json:"customer_id"`
	ProductCode           string   `json:"product_code"`
	ProductDisplayName    string   `json:"product_display_name"`
	AcceptanceProbability *float64 `json:"acceptance_probability,omitempty"`
	ExpectedRevenue       *float64 `json:"expected_revenue,omitempty"`
	Narrative             string   `json:"narrative,omitempty"`

	CustomerName string `json:"customer_name,omitempty"`
	ClusterID    *int   `json:"cluster_id,omitempty"`
	ClusterLabel string `json:"cluster_label,omitempty"`
	Segment      string `json:"segment,omitempty"`
}

// Probability returns the acceptance probability, or 0 when absent.
func (c Candidate) Probability() float64 {
	if c.AcceptanceProbability == nil {
		return 0
	}
	return *c.AcceptanceProbability
}

// Revenue returns the expected revenue, or 0 when absent.
func (c Candidate) Revenue() float64 {
	if c.ExpectedRevenue == nil {
		return 0
	}
	return *c.ExpectedRevenue
}

// ProductName returns the display name, falling back to the product code.
func (c Candidate) ProductName() string {
	if strings.TrimSpace(c.ProductDisplayName) != "" {
		return c.ProductDisplayName
	}
	return c.ProductCode
}

// TopCandidate returns the candidate with the highest acceptance probability,
// ties broken by highest expected revenue. Missing values count as 0. When
// both are equal the earlier candidate wins. ok is false for an empty set.
func TopCandidate(cands []Candidate) (top Candidate, ok bool) {
	for i, c := range cands {
		if i == 0 {
			top, ok = c, true
			continue
		}
		switch {
		case c.Probability() > top.Probability():
			top = c
		case c.Probability() == top.Probability() && c.Revenue() > top.Revenue():
			top = c
		}
	}
	return top, ok
}

// ─── PORTFOLIO ────────────────────────────────────────────────────────────────

// Category is one axis of the portfolio-fit radar.
type Category string

const (
	CategorySavings     Category = "Savings"
	CategoryInvestments Category = "Investments"
	CategoryCredit      Category = "Credit"
	CategoryInsurance   Category = "Insurance"
	CategoryDigital     Category = "Digital"
)

// Categories is the fixed category set, in display order.
var Categories = []Category{
	CategorySavings,
	CategoryInvestments,
	CategoryCredit,
	CategoryInsurance,
	CategoryDigital,
}

// Allocation maps every category to a value in [0, 100].
type Allocation map[Category]float64

// PortfolioFitProfile pairs the customer's current allocation with the ideal
// one. A profile is either complete on both sides or absent altogether; use
// NewPortfolioFitProfile to construct one.
type PortfolioFitProfile struct {
	Current Allocation `json:"current"`
	Ideal   Allocation `json:"ideal"`
}

// NewPortfolioFitProfile validates both allocations and returns a profile
// holding private copies of them.
func NewPortfolioFitProfile(current, ideal Allocation) (*PortfolioFitProfile, error) {
	if err := current.validate(); err != nil {
		return nil, fmt.Errorf("portfolio: current: %w", err)
	}
	if err := ideal.validate(); err != nil {
		return nil, fmt.Errorf("portfolio: ideal: %w", err)
	}
	return &PortfolioFitProfile{Current: current.clone(), Ideal: ideal.clone()}, nil
}

func (a Allocation) validate() error {
	if len(a) != len(Categories) {
		return fmt.Errorf("want %d categories, got %d", len(Categories), len(a))
	}
	for _, c := range Categories {
		v, ok := a[c]
		if !ok {
			return fmt.Errorf("missing category %q", c)
		}
		if v < 0 || v > 100 {
			return fmt.Errorf("%s=%v out of range [0,100]", c, v)
		}
	}
	return nil
}

func (a Allocation) clone() Allocation {
	out := make(Allocation, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
