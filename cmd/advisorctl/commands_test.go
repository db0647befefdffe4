package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and stdin, returning stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// dataService serves C1 and C2 and 404s everything else. C2 has no
// explanation, so its narrative is synthesized.
func dataService(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /recommendations/C1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"snapshot": {"customer_id": "C1", "name": "Ada Lovelace", "cluster_id": 1},
			"recommended_service": {"id": "r1", "product_code": "INV01", "product_name": "Investment Fund", "acceptance_probability": 0.8},
			"ai_explanation": {"summary": "Ada keeps large idle balances.", "key_benefits": ["Long-term growth"]}
		}`))
	})
	mux.HandleFunc("GET /customers/C1/recommendations", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("GET /recommendations/C2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"snapshot": {"customer_id": "C2", "name": "Grace Hopper", "cluster_id": 0},
			"recommended_service": {"id": "r2", "product_code": "SAV01", "product_name": "Savings Account", "acceptance_probability": 0.6}
		}`))
	})
	mux.HandleFunc("GET /customers/C2/recommendations", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// ─── check ────────────────────────────────────────────────────────────────────

func TestCheck_PassesCleanText(t *testing.T) {
	out, err := execute(t, "", "check",
		"Please review the terms and conditions before you decide, there is no rush at all.")
	require.NoError(t, err)

	var res struct {
		State string `json:"compliance_state"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "passed", res.State)
}

func TestCheck_BlockedExitsNonZero(t *testing.T) {
	_, err := execute(t, "This is risk-free.", "check", "-")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBlocked))
	assert.Contains(t, err.Error(), "risk-free")
}

func TestCheck_CustomPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prohibited_phrases: [\"act now\"]\n"), 0o600))

	_, err := execute(t, "", "--policy", path, "check", "Act now!")
	assert.ErrorIs(t, err, errBlocked)
}

// ─── rank ─────────────────────────────────────────────────────────────────────

func TestRank_FromStdin(t *testing.T) {
	in := `[
		{"id": "a", "customer_id": "C1", "product_code": "P", "customer_name": "Zed"},
		{"id": "b", "customer_id": "C2", "product_code": "P", "customer_name": "amy"}
	]`
	out, err := execute(t, in, "rank", "--mode", "name")
	require.NoError(t, err)

	var items []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
}

func TestRank_UnknownMode(t *testing.T) {
	_, err := execute(t, "[]", "rank", "--mode", "vibes")
	require.Error(t, err)
}

func TestRank_MissingFile(t *testing.T) {
	_, err := execute(t, "", "rank", "--file", filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

// ─── resolve / draft ──────────────────────────────────────────────────────────

func TestResolve_RequiresDataService(t *testing.T) {
	t.Setenv("DATA_SERVICE_URL", "")
	_, err := execute(t, "", "resolve", "C1")
	require.Error(t, err)
}

func TestResolve_PrintsView(t *testing.T) {
	srv := dataService(t)
	out, err := execute(t, "", "--data-url", srv.URL, "resolve", "C1")
	require.NoError(t, err)

	var view struct {
		Customer struct {
			DisplayName string `json:"display_name"`
		} `json:"customer"`
		State string `json:"resolution_state"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "Ada Lovelace", view.Customer.DisplayName)
	assert.Equal(t, "resolved", view.State)
}

func TestDraft_ComposesWithDisclaimer(t *testing.T) {
	srv := dataService(t)
	out, err := execute(t, "", "--data-url", srv.URL, "draft", "--customer", "C1", "--tone", "security", "--disclaimer")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "Dear Ada,"), out)
	assert.Contains(t, out, "Investment Fund")
	assert.NotContains(t, out, "needs disclaimer")
}

func TestDraft_UnknownCustomerHasNoCandidate(t *testing.T) {
	srv := dataService(t)
	_, err := execute(t, "", "--data-url", srv.URL, "draft", "--customer", "C404")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidate")
}

func TestDraft_LeadsWithNarrativeBenefit(t *testing.T) {
	srv := dataService(t)
	viewOut, err := execute(t, "", "--data-url", srv.URL, "resolve", "C2")
	require.NoError(t, err)
	var view struct {
		Narrative struct {
			KeyBenefits []string `json:"key_benefits"`
		} `json:"narrative"`
	}
	require.NoError(t, json.Unmarshal([]byte(viewOut), &view))
	require.NotEmpty(t, view.Narrative.KeyBenefits)

	out, err := execute(t, "", "--data-url", srv.URL, "draft", "--customer", "C2", "--tone", "growth")
	require.NoError(t, err)
	assert.Contains(t, out, view.Narrative.KeyBenefits[0])
}

// ─── personas ─────────────────────────────────────────────────────────────────

func TestPersonas_ListsEveryCluster(t *testing.T) {
	out, err := execute(t, "", "personas")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "0\tyoung-digital\tgrowth\t"), lines[0])
}
