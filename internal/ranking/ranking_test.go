package ranking_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/advisory-drafting-backend/internal/advisory"
	"github.com/nyashahama/advisory-drafting-backend/internal/ranking"
)

func f64(v float64) *float64 { return &v }
func intPtr(v int) *int     { return &v }

// fixture returns n candidates for distinct customers, all with a probability
// of at least 0.5.
func fixture(n int) []advisory.Candidate {
	out := make([]advisory.Candidate, 0, n)
	for i := range n {
		out = append(out, advisory.Candidate{
			ID:                    fmt.Sprintf("r%02d", i),
			CustomerID:            fmt.Sprintf("C%03d", i),
			CustomerName:          fmt.Sprintf("Customer %02d", i),
			ProductCode:           "SAV01",
			AcceptanceProbability: f64(0.5 + float64(i)/100),
			ExpectedRevenue:       f64(float64(100 * (i + 1))),
			ClusterID:             intPtr(i % 3),
		})
	}
	return out
}

func ids(cands []advisory.Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.ID)
	}
	return out
}

// ─── Rank ─────────────────────────────────────────────────────────────────────

func TestRank_EmptyInput(t *testing.T) {
	for _, m := range ranking.Modes {
		got, err := ranking.Rank(nil, m, ranking.FilterState{})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestRank_UnknownMode(t *testing.T) {
	_, err := ranking.Rank(fixture(3), ranking.Mode("alphabetical"), ranking.FilterState{})
	require.Error(t, err)
}

func TestRank_RandomIsStableForSameFilter(t *testing.T) {
	cands := fixture(20)
	f := ranking.FilterState{Search: "customer"}

	a, err := ranking.Rank(cands, ranking.ModeRandom, f)
	require.NoError(t, err)
	b, err := ranking.Rank(cands, ranking.ModeRandom, f)
	require.NoError(t, err)

	if diff := cmp.Diff(ids(a), ids(b)); diff != "" {
		t.Errorf("order changed between calls (-first +second):\n%s", diff)
	}
	assert.ElementsMatch(t, ids(cands), ids(a))
}

func TestRank_RandomReshufflesWhenMinPropensityChanges(t *testing.T) {
	cands := fixture(20)

	zero, err := ranking.Rank(cands, ranking.ModeRandom, ranking.FilterState{MinPropensity: 0})
	require.NoError(t, err)
	fifty, err := ranking.Rank(cands, ranking.ModeRandom, ranking.FilterState{MinPropensity: 50})
	require.NoError(t, err)

	require.Len(t, fifty, 20, "every fixture candidate clears 50%")
	assert.ElementsMatch(t, ids(zero), ids(fifty))
	assert.NotEqual(t, ids(zero), ids(fifty))
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	cands := fixture(10)
	before := ids(cands)
	for _, m := range ranking.Modes {
		_, err := ranking.Rank(cands, m, ranking.FilterState{})
		require.NoError(t, err)
	}
	assert.Equal(t, before, ids(cands))
}

func TestRank_RevenueFavoursHighRevenue(t *testing.T) {
	cands := []advisory.Candidate{
		{ID: "low", CustomerID: "C1", ProductCode: "A", ExpectedRevenue: f64(0)},
		{ID: "high", CustomerID: "C1", ProductCode: "B", ExpectedRevenue: f64(10_000)},
	}
	got, err := ranking.Rank(cands, ranking.ModeRevenue, ranking.FilterState{})
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "low"}, ids(got), "same customer means same jitter, so revenue decides")
}

func TestRank_ProbabilityTreatsMissingAsZero(t *testing.T) {
	cands := []advisory.Candidate{
		{ID: "missing", CustomerID: "C1", ProductCode: "A"},
		{ID: "known", CustomerID: "C1", ProductCode: "B", AcceptanceProbability: f64(0.4)},
	}
	got, err := ranking.Rank(cands, ranking.ModeProbability, ranking.FilterState{})
	require.NoError(t, err)
	assert.Equal(t, []string{"known", "missing"}, ids(got))
}

func TestRank_NameIsAlphabetic(t *testing.T) {
	cands := []advisory.Candidate{
		{ID: "r1", CustomerID: "C1", CustomerName: "zoe", ProductCode: "A"},
		{ID: "r2", CustomerID: "C2", CustomerName: "Adam", ProductCode: "A"},
		{ID: "r3", CustomerID: "C3", ProductCode: "A"},
		{ID: "r4", CustomerID: "C4", CustomerName: "adam", ProductCode: "B"},
	}
	got, err := ranking.Rank(cands, ranking.ModeName, ranking.FilterState{})
	require.NoError(t, err)
	assert.Equal(t, []string{"r2", "r4", "r3", "r1"}, ids(got))
}

// ─── Filter ───────────────────────────────────────────────────────────────────

func TestFilter(t *testing.T) {
	cands := []advisory.Candidate{
		{ID: "r1", CustomerID: "C1", CustomerName: "Ada", ProductCode: "SAV01", ClusterID: intPtr(1), AcceptanceProbability: f64(0.9)},
		{ID: "r2", CustomerID: "C2", CustomerName: "Bo", ProductCode: "INV01", ClusterID: intPtr(2), AcceptanceProbability: f64(0.3)},
		{ID: "r3", CustomerID: "C3", CustomerName: "Cy", ProductCode: "sav01"},
	}

	tests := []struct {
		name string
		f    ranking.FilterState
		want []string
	}{
		{"none", ranking.FilterState{}, []string{"r1", "r2", "r3"}},
		{"cluster", ranking.FilterState{ClusterID: intPtr(2)}, []string{"r2"}},
		{"product is case-insensitive", ranking.FilterState{ProductCode: "SAV01"}, []string{"r1", "r3"}},
		{"min propensity uses displayed value", ranking.FilterState{MinPropensity: 50}, []string{"r1", "r3"}},
		{"search", ranking.FilterState{Search: "  bo "}, []string{"r2"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(ranking.Filter(cands, tc.f)))
		})
	}
}

// ─── ShuffleKey / DisplayProbability ──────────────────────────────────────────

func TestShuffleKey_IgnoresInputOrder(t *testing.T) {
	a := fixture(4)
	b := []advisory.Candidate{a[3], a[1], a[0], a[2]}
	f := ranking.FilterState{ClusterID: intPtr(1)}
	assert.Equal(t, ranking.ShuffleKey(ranking.ModeRandom, f, a), ranking.ShuffleKey(ranking.ModeRandom, f, b))
	assert.NotEqual(t, ranking.ShuffleKey(ranking.ModeRandom, f, a), ranking.ShuffleKey(ranking.ModeRandom, ranking.FilterState{}, a))
}

func TestDisplayProbability(t *testing.T) {
	known := advisory.Candidate{ID: "r1", CustomerID: "C1", ProductCode: "A", AcceptanceProbability: f64(0.12)}
	assert.Equal(t, 0.12, ranking.DisplayProbability(known))

	for i := range 200 {
		c := advisory.Candidate{ID: "r", CustomerID: fmt.Sprintf("C%d", i), ProductCode: "SAV01"}
		p := ranking.DisplayProbability(c)
		assert.GreaterOrEqual(t, p, 0.65)
		assert.Less(t, p, 0.98)
		assert.Equal(t, p, ranking.DisplayProbability(c))
	}
}

func TestItems(t *testing.T) {
	items := ranking.Items([]advisory.Candidate{{ID: "r1", CustomerID: "C1", ProductCode: "A"}})
	require.Len(t, items, 1)
	assert.Equal(t, "r1", items[0].ID)
	assert.GreaterOrEqual(t, items[0].DisplayProbability, 0.65)
}

func TestParseMode(t *testing.T) {
	m, err := ranking.ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ranking.ModeRandom, m)

	m, err = ranking.ParseMode(" Revenue ")
	require.NoError(t, err)
	assert.Equal(t, ranking.ModeRevenue, m)

	_, err = ranking.ParseMode("bogus")
	require.Error(t, err)
}
