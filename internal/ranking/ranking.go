// Package ranking orders and filters candidate lists for the advisor list
// view. Every mode is reproducible: the same candidates and filter state
// always give the same order.
package ranking

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/nyashahama/advisory-drafting-backend/internal/advisory"
	"github.com/nyashahama/advisory-drafting-backend/internal/scoring"
)

// Mode selects the ordering applied by Rank.
type Mode string

const (
	ModeRandom      Mode = "random"
	ModeRevenue     Mode = "revenue"
	ModeProbability Mode = "probability"
	ModeName        Mode = "name"
)

// Modes lists the supported modes.
var Modes = []Mode{ModeRandom, ModeRevenue, ModeProbability, ModeName}

// ParseMode normalises s into a Mode. An empty string yields ModeRandom.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ModeRandom, nil
	}
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("ranking: unknown mode %q", s)
}

// Score weights.
const (
	revenueWeight           = 0.6
	revenueJitterWeight     = 0.4
	probabilityWeight       = 0.7
	probabilityJitterWeight = 0.3
)

// Display band for candidates without a probability.
const (
	displayFloor = 0.65
	displaySpan  = 0.33
)

// FilterState is the active set of list filters. The zero value filters
// nothing.
type FilterState struct {
	ClusterID   *int   `json:"cluster_id,omitempty"`
	ProductCode string `json:"product_code,omitempty"`
	// MinPropensity is a percentage in [0, 100] compared against the displayed
	// probability.
	MinPropensity float64 `json:"min_propensity"`
	Search        string  `json:"search,omitempty"`
}

// Rank filters cands by f and orders the survivors by mode. The input slice
// is not modified. An empty input returns an empty, non-nil slice.
func Rank(cands []advisory.Candidate, mode Mode, f FilterState) ([]advisory.Candidate, error) {
	if !slices.Contains(Modes, mode) {
		return nil, fmt.Errorf("ranking: unknown mode %q", mode)
	}

	view := Filter(cands, f)
	if len(view) == 0 {
		return []advisory.Candidate{}, nil
	}

	switch mode {
	case ModeRevenue:
		maxRev := 0.0
		for _, c := range view {
			maxRev = math.Max(maxRev, c.Revenue())
		}
		sortByScore(view, func(c advisory.Candidate) float64 {
			norm := 0.0
			if maxRev > 0 {
				norm = c.Revenue() / maxRev
			}
			return revenueWeight*norm + revenueJitterWeight*scoring.ScoreOf(c.CustomerID)
		})
		return view, nil

	case ModeProbability:
		sortByScore(view, func(c advisory.Candidate) float64 {
			return probabilityWeight*c.Probability() + probabilityJitterWeight*scoring.ScoreOf(c.CustomerID)
		})
		return view, nil

	case ModeName:
		slices.SortStableFunc(view, func(a, b advisory.Candidate) int {
			if c := strings.Compare(nameKey(a), nameKey(b)); c != 0 {
				return c
			}
			if c := strings.Compare(strings.ToLower(a.ProductName()), strings.ToLower(b.ProductName())); c != 0 {
				return c
			}
			return strings.Compare(a.ID, b.ID)
		})
		return view, nil

	default:
		return scoring.StableShuffle(view, ShuffleKey(mode, f, view)), nil
	}
}

// Filter returns the candidates matching every active filter in f, in input
// order.
func Filter(cands []advisory.Candidate, f FilterState) []advisory.Candidate {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]advisory.Candidate, 0, len(cands))
	for _, c := range cands {
		if f.ClusterID != nil && (c.ClusterID == nil || *c.ClusterID != *f.ClusterID) {
			continue
		}
		if f.ProductCode != "" && !strings.EqualFold(c.ProductCode, f.ProductCode) {
			continue
		}
		if f.MinPropensity > 0 && DisplayProbability(c)*100 < f.MinPropensity {
			continue
		}
		if search != "" && !matches(c, search) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ShuffleKey builds the shuffle seed key for a filter state: the filter
// values, the mode and the sorted ids of the candidates in view. Any change
// to one of them reshuffles the list.
func ShuffleKey(mode Mode, f FilterState, view []advisory.Candidate) string {
	ids := make([]string, 0, len(view))
	for _, c := range view {
		ids = append(ids, c.ID)
	}
	slices.Sort(ids)

	cluster := "all"
	if f.ClusterID != nil {
		cluster = strconv.Itoa(*f.ClusterID)
	}

	var b strings.Builder
	b.WriteString("mode=" + string(mode))
	b.WriteString("|cluster=" + cluster)
	b.WriteString("|product=" + strings.ToUpper(f.ProductCode))
	b.WriteString("|min=" + strconv.FormatFloat(f.MinPropensity, 'f', -1, 64))
	b.WriteString("|search=" + strings.ToLower(strings.TrimSpace(f.Search)))
	b.WriteString("|ids=" + strings.Join(ids, ","))
	return b.String()
}

// DisplayProbability returns the probability to show for c. A missing value
// is replaced by a stable value in [0.65, 0.98) derived from the customer and
// product, never a literal 0.
func DisplayProbability(c advisory.Candidate) float64 {
	if c.AcceptanceProbability != nil {
		return *c.AcceptanceProbability
	}
	return displayFloor + displaySpan*scoring.ScoreOf("display|"+c.CustomerID+"|"+c.ProductCode)
}

// Item is a ranked candidate with its display probability.
type Item struct {
	advisory.Candidate
	DisplayProbability float64 `json:"display_probability"`
}

// Items decorates ranked candidates for presentation.
func Items(cands []advisory.Candidate) []Item {
	out := make([]Item, 0, len(cands))
	for _, c := range cands {
		out = append(out, Item{Candidate: c, DisplayProbability: DisplayProbability(c)})
	}
	return out
}

// ─── HELPERS ──────────────────────────────────────────────────────────────────

// sortByScore orders view by descending score. Equal scores fall back to id
// order so the result never depends on input order.
func sortByScore(view []advisory.Candidate, score func(advisory.Candidate) float64) {
	type scored struct {
		c advisory.Candidate
		s float64
	}
	tmp := make([]scored, len(view))
	for i, c := range view {
		tmp[i] = scored{c: c, s: score(c)}
	}
	slices.SortStableFunc(tmp, func(a, b scored) int {
		switch {
		case a.s > b.s:
			return -1
		case a.s < b.s:
			return 1
		}
		return strings.Compare(a.c.ID, b.c.ID)
	})
	for i := range tmp {
		view[i] = tmp[i].c
	}
}

func nameKey(c advisory.Candidate) string {
	if n := strings.TrimSpace(c.CustomerName); n != "" {
		return strings.ToLower(n)
	}
	return strings.ToLower(c.CustomerID)
}

func matches(c advisory.Candidate, needle string) bool {
	for _, field := range []string{c.CustomerName, c.CustomerID, c.ProductCode, c.ProductDisplayName, c.Segment, c.ClusterLabel} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
