package compliance_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/advisory-drafting-backend/internal/advisory"
	"github.com/nyashahama/advisory-drafting-backend/internal/compliance"
)

func newEngine() *compliance.Engine {
	return compliance.NewEngine(compliance.DefaultPolicy())
}

const longCompliant = "Please review the terms and conditions attached before we meet to discuss your new savings options."

// ─── Evaluate ─────────────────────────────────────────────────────────────────

func TestEvaluate_GuaranteedReturnsAlwaysBlocks(t *testing.T) {
	e := newEngine()
	bodies := []string{
		"guaranteed returns",
		"Our fund offers GUARANTEED RETURNS. " + longCompliant,
		longCompliant + " Guaranteed Returns!",
		"Think of it as GuArAnTeEd ReTuRnS for you.",
	}
	for _, b := range bodies {
		res := e.Evaluate(b)
		assert.Equal(t, advisory.ComplianceBlocked, res.State, "body=%q", b)
		assert.Contains(t, res.ProhibitedMatches, "guaranteed returns")
	}
}

func TestEvaluate_ReportsEveryMatch(t *testing.T) {
	res := newEngine().Evaluate("A risk-free product with guaranteed returns that is 100% SAFE.")
	assert.Equal(t, advisory.ComplianceBlocked, res.State)
	assert.Equal(t, []string{"guaranteed returns", "risk-free", "100% safe"}, res.ProhibitedMatches)
}

func TestEvaluate_DisclaimerMarkerClearsNeedsDisclaimer(t *testing.T) {
	e := newEngine()
	for _, b := range []string{
		"Please review the terms and conditions",
		"please review the TERMS AND CONDITIONS before signing anything today, thank you.",
		"x Please review the terms and conditions x",
	} {
		assert.False(t, e.Evaluate(b).NeedsDisclaimer, "body=%q", b)
	}
}

func TestEvaluate_ShortBodyWithoutDisclaimerWarns(t *testing.T) {
	res := newEngine().Evaluate("I've unlocked this for you")
	assert.Equal(t, advisory.ComplianceWarned, res.State)
	assert.True(t, res.NeedsDisclaimer)
	assert.True(t, res.TooBrief)
	assert.Empty(t, res.ProhibitedMatches)
	assert.NotNil(t, res.ProhibitedMatches)
}

func TestEvaluate_Passed(t *testing.T) {
	res := newEngine().Evaluate(longCompliant)
	assert.Equal(t, advisory.CompliancePassed, res.State)
	assert.False(t, res.NeedsDisclaimer)
	assert.False(t, res.TooBrief)
}

func TestEvaluate_BriefButDisclaimedStillWarns(t *testing.T) {
	res := newEngine().Evaluate("Subject to status.")
	assert.Equal(t, advisory.ComplianceWarned, res.State)
	assert.False(t, res.NeedsDisclaimer)
	assert.True(t, res.TooBrief)
}

// ─── Compose / Edit / ApplyDisclaimer / CanSend ───────────────────────────────

func draftContext(tone advisory.Tone, product string) compliance.DraftContext {
	return compliance.DraftContext{
		Customer:        advisory.CustomerSnapshot{CustomerID: "C1", DisplayName: "Ada Lovelace"},
		Candidate:       advisory.Candidate{ID: "r1", CustomerID: "C1", ProductCode: "P1", ProductDisplayName: product},
		Tone:            tone,
		ClusterCategory: "retirees",
		Benefit:         "It keeps your savings within easy reach.",
	}
}

func TestCompose_ToneShapesTheDraft(t *testing.T) {
	e := newEngine()
	growth := e.Compose(draftContext(advisory.ToneGrowth, "Premium Savings Account"), nil)
	security := e.Compose(draftContext(advisory.ToneSecurity, "Premium Savings Account"), nil)

	assert.True(t, strings.HasPrefix(growth.Body, "Hi Ada,"))
	assert.True(t, strings.HasPrefix(security.Body, "Dear Ada,"))
	assert.NotEqual(t, growth.Body, security.Body)
	assert.Contains(t, growth.Body, "Premium Savings Account")
	assert.Contains(t, growth.Body, "It keeps your savings within easy reach.")
	assert.Equal(t, advisory.ProductSavings, growth.ProductCategory)
}

func TestCompose_FreshDraftNeedsDisclaimerButIsSendable(t *testing.T) {
	e := newEngine()
	for _, tone := range advisory.Tones {
		d := e.Compose(draftContext(tone, "Home Loan"), nil)
		assert.Equal(t, advisory.ComplianceWarned, d.ComplianceState, "tone=%s", tone)
		assert.True(t, d.NeedsDisclaimer, "tone=%s", tone)
		assert.NoError(t, e.CanSend(d))
	}
}

func TestCompose_Deterministic(t *testing.T) {
	e := newEngine()
	a := e.Compose(draftContext(advisory.ToneConcierge, "Wealth Fund"), nil)
	b := e.Compose(draftContext(advisory.ToneConcierge, "Wealth Fund"), nil)
	assert.Equal(t, a, b)
}

func TestCompose_UsesPrimaryExemplarResponse(t *testing.T) {
	library := []advisory.Exemplar{
		{ID: "incomplete", Category: "retirees", Tone: advisory.ToneSecurity, Situation: "", Response: "unused"},
		{ID: "ref", Category: "retirees", Tone: advisory.ToneSecurity, Situation: "Nervous saver", Response: "Many customers like you, {name}, value steady progress."},
		{ID: "other-tone", Category: "retirees", Tone: advisory.ToneGrowth, Situation: "s", Response: "never chosen"},
	}
	d := newEngine().Compose(draftContext(advisory.ToneSecurity, "Savings Account"), library)

	assert.Contains(t, d.Body, "Many customers like you, Ada, value steady progress.")
	assert.NotContains(t, d.Body, "never chosen")
	assert.Equal(t, []string{"incomplete", "ref"}, d.ExemplarIDs)
}

func TestEdit_ReevaluatesSynchronously(t *testing.T) {
	e := newEngine()
	d := e.Compose(draftContext(advisory.ToneGrowth, "Investment Fund"), nil)

	blocked := e.Edit(d, d.Body+" Guaranteed returns!")
	assert.Equal(t, advisory.ComplianceBlocked, blocked.ComplianceState)
	assert.ErrorIs(t, e.CanSend(blocked), compliance.ErrBlocked)
	assert.Equal(t, d.Tone, blocked.Tone)

	empty := e.Edit(d, "   ")
	assert.ErrorIs(t, e.CanSend(empty), compliance.ErrEmptyDraft)
}

func TestApplyDisclaimer_ProductSpecific(t *testing.T) {
	e := newEngine()
	cases := map[string]advisory.ProductCategory{
		"Personal Loan":      advisory.ProductLoan,
		"Global Equity Fund": advisory.ProductInvestment,
		"Life Insurance":     advisory.ProductInsurance,
		"Gift Voucher":       advisory.ProductGeneric,
	}
	seen := map[string]bool{}
	for product, cat := range cases {
		d := e.Compose(draftContext(advisory.ToneConcierge, product), nil)
		require.Equal(t, cat, d.ProductCategory, product)
		require.True(t, d.NeedsDisclaimer)

		out := e.ApplyDisclaimer(d)
		assert.False(t, out.NeedsDisclaimer, product)
		assert.Equal(t, advisory.CompliancePassed, out.ComplianceState, product)
		assert.True(t, strings.HasSuffix(out.Body, compliance.DisclaimerFor(cat)), product)
		seen[compliance.DisclaimerFor(cat)] = true

		again := e.ApplyDisclaimer(out)
		assert.Equal(t, out.Body, again.Body, "applying twice does not duplicate the paragraph")
	}
	assert.Len(t, seen, 4, "each family has distinct text")
}

func TestDisclaimers_AreThemselvesCompliant(t *testing.T) {
	e := newEngine()
	for _, c := range []advisory.ProductCategory{advisory.ProductLoan, advisory.ProductInvestment, advisory.ProductInsurance, advisory.ProductGeneric, advisory.ProductSavings} {
		res := e.Evaluate(compliance.DisclaimerFor(c))
		assert.Empty(t, res.ProhibitedMatches, c)
		assert.False(t, res.NeedsDisclaimer, c)
	}
}

// ─── SelectExemplars ──────────────────────────────────────────────────────────

func TestSelectExemplars_Ordering(t *testing.T) {
	library := []advisory.Exemplar{
		{ID: "plain", Category: "general", Tone: advisory.ToneGrowth},
		{ID: "product", Category: "investment", Tone: advisory.ToneGrowth},
		{ID: "wrong-tone", Category: "retirees", Tone: advisory.ToneSecurity},
		{ID: "service", Category: "general", Service: "Index Fund", Tone: advisory.ToneGrowth},
		{ID: "cluster", Category: "retirees", Tone: advisory.ToneGrowth},
	}

	got := compliance.SelectExemplars(library, advisory.ToneGrowth, "retirees", advisory.ProductInvestment)
	ids := make([]string, 0, len(got))
	for _, ex := range got {
		ids = append(ids, ex.ID)
	}
	assert.Equal(t, []string{"cluster", "product", "service"}, ids)
}

func TestPrimaryReference_NoneComplete(t *testing.T) {
	_, ok := compliance.PrimaryReference([]advisory.Exemplar{{ID: "a", Response: "only response"}})
	assert.False(t, ok)
}

// ─── Policy ───────────────────────────────────────────────────────────────────

func TestParsePolicy_OverridesKeepDefaults(t *testing.T) {
	p, err := compliance.ParsePolicy([]byte("prohibited_phrases:\n  - \"No Risk\"\n  - no risk\nmin_length: 20\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"no risk"}, p.ProhibitedPhrases)
	assert.Equal(t, 20, p.MinLength)
	assert.Equal(t, compliance.DefaultPolicy().DisclaimerMarkers, p.DisclaimerMarkers)

	res := compliance.NewEngine(p).Evaluate("This is a NO RISK offer, subject to status.")
	assert.Equal(t, advisory.ComplianceBlocked, res.State)
}

func TestParsePolicy_Invalid(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown key":      "prohibited: [x]\n",
		"negative length":  "min_length: -1\n",
		"no markers":       "disclaimer_markers: []\n",
		"wrong value type": "min_length: lots\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := compliance.ParsePolicy([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestParsePolicy_EmptyDocumentIsDefault(t *testing.T) {
	p, err := compliance.ParsePolicy(nil)
	require.NoError(t, err)
	assert.Equal(t, compliance.DefaultPolicy(), p)
}

func TestLoadPolicy(t *testing.T) {
	p, err := compliance.LoadPolicy("")
	require.NoError(t, err)
	assert.Equal(t, compliance.DefaultPolicy(), p)

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_length: 10\n"), 0o600))
	p, err = compliance.LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, 10, p.MinLength)

	_, err = compliance.LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
