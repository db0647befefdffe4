package advisory

import (
	"fmt"
	"strings"
)

// ─── TONE ─────────────────────────────────────────────────────────────────────

// Tone selects the greeting, value-proposition and call-to-action phrasing
// of a draft.
type Tone string

const (
	ToneGrowth    Tone = "growth"
	ToneSecurity  Tone = "security"
	ToneConcierge Tone = "concierge"
)

// Tones lists the supported tones.
var Tones = []Tone{ToneGrowth, ToneSecurity, ToneConcierge}

// ParseTone normalises s into a Tone. An empty string yields ToneConcierge.
func ParseTone(s string) (Tone, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ToneConcierge, nil
	}
	for _, t := range Tones {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tone %q", s)
}

// ─── COMPLIANCE ───────────────────────────────────────────────────────────────

// ComplianceState is the evaluated state of a draft body.
type ComplianceState string

const (
	CompliancePassed  ComplianceState = "passed"
	ComplianceWarned  ComplianceState = "warned"
	ComplianceBlocked ComplianceState = "blocked"
)

// ComplianceResult is the outcome of screening one body of text.
type ComplianceResult struct {
	State             ComplianceState `json:"compliance_state"`
	ProhibitedMatches []string        `json:"prohibited_matches"`
	NeedsDisclaimer   bool            `json:"needs_disclaimer"`
	TooBrief          bool            `json:"too_brief"`
}

// DraftMessage is the editable outreach message for one customer + product.
// It is regenerated wholesale when tone or product changes; edits replace
// Body and re-run evaluation, producing a new value.
type DraftMessage struct {
	Body              string          `json:"body"`
	Tone              Tone            `json:"tone"`
	ComplianceState   ComplianceState `json:"compliance_state"`
	ProhibitedMatches []string        `json:"prohibited_matches"`
	NeedsDisclaimer   bool            `json:"needs_disclaimer"`

	CustomerID      string          `json:"customer_id"`
	CustomerName    string          `json:"customer_name"`
	ProductCode     string          `json:"product_code"`
	ProductName     string          `json:"product_name"`
	ProductCategory ProductCategory `json:"product_category"`
	ExemplarIDs     []string        `json:"exemplar_ids,omitempty"`
}

// WithResult returns a copy of d carrying the given evaluation.
func (d DraftMessage) WithResult(r ComplianceResult) DraftMessage {
	d.ComplianceState = r.State
	d.ProhibitedMatches = r.ProhibitedMatches
	d.NeedsDisclaimer = r.NeedsDisclaimer
	return d
}

// ─── EXEMPLARS ────────────────────────────────────────────────────────────────

// Exemplar is a stored situation → response pair used as a style reference.
type Exemplar struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Situation string `json:"situation"`
	Response  string `json:"response"`
	Tone      Tone   `json:"tone"`
	Service   string `json:"service,omitempty"`
}

// Complete reports whether the exemplar can serve as a primary reference.
func (e Exemplar) Complete() bool {
	return strings.TrimSpace(e.Situation) != "" && strings.TrimSpace(e.Response) != ""
}

// ─── PRODUCTS ─────────────────────────────────────────────────────────────────

// ProductCategory is the coarse product family used for disclaimers and
// exemplar matching.
type ProductCategory string

const (
	ProductLoan       ProductCategory = "loan"
	ProductInvestment ProductCategory = "investment"
	ProductInsurance  ProductCategory = "insurance"
	ProductSavings    ProductCategory = "savings"
	ProductDigital    ProductCategory = "digital"
	ProductGeneric    ProductCategory = "generic"
)

// productKeywords is checked in order; the first hit wins.
var productKeywords = []struct {
	category ProductCategory
	words    []string
}{
	{ProductLoan, []string{"loan", "credit", "mortgage", "overdraft", "financing", "card"}},
	{ProductInvestment, []string{"invest", "fund", "portfolio", "equity", "wealth", "pension", "retirement", "bond"}},
	{ProductInsurance, []string{"insur", "cover", "protect", "assurance"}},
	{ProductSavings, []string{"saving", "deposit", "account"}},
	{ProductDigital, []string{"digital", "app", "mobile", "online"}},
}

// CategorizeProduct maps a product name or code to its family by keyword.
func CategorizeProduct(name string) ProductCategory {
	lower := strings.ToLower(name)
	for _, pk := range productKeywords {
		for _, w := range pk.words {
			if strings.Contains(lower, w) {
				return pk.category
			}
		}
	}
	return ProductGeneric
}
