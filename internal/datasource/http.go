package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nyashahama/advisory-drafting-backend/internal/advisory"
)

// httpSource is the concrete Source backed by the data service's JSON API.
type httpSource struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPSource returns a Source that calls the data service.
//   - baseURL: e.g. "http://recommendations.internal:8000"
//   - timeout: per-request deadline; 0 means 10s
func NewHTTPSource(baseURL string, timeout time.Duration) Source {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ─── WIRE SHAPES ──────────────────────────────────────────────────────────────

type candidateJSON struct {
	ID                    string   `json:"id"`
	CustomerID            string   `json:"customer_id"`
	ProductCode           string   `json:"product_code"`
	ProductName           string   `json:"product_name"`
	AcceptanceProbability *float64 `json:"acceptance_probability"`
	ExpectedRevenue       *float64 `json:"expected_revenue"`
	Narrative             string   `json:"narrative"`
	CustomerName          string   `json:"customer_name"`
	ClusterID             *int     `json:"cluster_id"`
	ClusterLabel          string   `json:"cluster_label"`
	Segment               string   `json:"segment"`
}

type snapshotJSON struct {
	CustomerID   string `json:"customer_id"`
	Name         string `json:"name"`
	ClusterID    *int   `json:"cluster_id"`
	ClusterLabel string `json:"cluster_label"`
	Segment      string `json:"segment"`
	Profession   string `json:"profession"`
	AgeRange     string `json:"age_range"`
	Age          *int   `json:"age"`
	Gender       string `json:"gender"`
}

type portfolioJSON struct {
	Current map[string]float64 `json:"current"`
	Ideal   map[string]float64 `json:"ideal"`
}

type detailJSON struct {
	Snapshot           *snapshotJSON  `json:"snapshot"`
	RecommendedService *candidateJSON `json:"recommended_service"`
	AIExplanation      *Explanation   `json:"ai_explanation"`
	Portfolio          *portfolioJSON `json:"portfolio"`
}

// ─── IMPLEMENTATION ───────────────────────────────────────────────────────────

// ListCandidates calls GET /customers/{id}/recommendations.
func (s *httpSource) ListCandidates(ctx context.Context, customerID string) ([]advisory.Candidate, error) {
	const op = "list candidates"

	var raw []candidateJSON
	if err := s.get(ctx, op, "/customers/"+url.PathEscape(customerID)+"/recommendations", &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &ShapeError{Op: op, Reason: "expected a JSON array"}
	}

	out := make([]advisory.Candidate, 0, len(raw))
	for i, rc := range raw {
		if rc.CustomerID != "" && rc.CustomerID != customerID {
			continue
		}
		c, err := rc.toCandidate(customerID)
		if err != nil {
			return nil, &ShapeError{Op: op, Reason: fmt.Sprintf("item %d: %v", i, err)}
		}
		out = append(out, c)
	}
	return out, nil
}

// GetDetail calls GET /recommendations/{id}.
func (s *httpSource) GetDetail(ctx context.Context, customerID string) (Detail, error) {
	const op = "get detail"

	var raw detailJSON
	if err := s.get(ctx, op, "/recommendations/"+url.PathEscape(customerID), &raw); err != nil {
		return Detail{}, err
	}
	if raw.Snapshot == nil {
		return Detail{}, &ShapeError{Op: op, Reason: "missing snapshot"}
	}
	if strings.TrimSpace(raw.Snapshot.CustomerID) == "" {
		return Detail{}, &ShapeError{Op: op, Reason: "snapshot has no customer_id"}
	}

	snap := raw.Snapshot.toSnapshot()
	d := Detail{Snapshot: &snap, Explanation: raw.AIExplanation}

	if raw.RecommendedService != nil {
		c, err := raw.RecommendedService.toCandidate(snap.CustomerID)
		if err != nil {
			return Detail{}, &ShapeError{Op: op, Reason: "recommended_service: " + err.Error()}
		}
		d.RecommendedService = &c
	}

	// A partial portfolio is dropped entirely rather than passed on half-filled.
	if raw.Portfolio != nil {
		if p, err := advisory.NewPortfolioFitProfile(toAllocation(raw.Portfolio.Current), toAllocation(raw.Portfolio.Ideal)); err == nil {
			d.Portfolio = p
		}
	}

	return d, nil
}

// GetClusterSummary calls GET /batch-runs/latest.
func (s *httpSource) GetClusterSummary(ctx context.Context) (ClusterSummary, error) {
	const op = "get cluster summary"

	var sum ClusterSummary
	if err := s.get(ctx, op, "/batch-runs/latest", &sum); err != nil {
		return ClusterSummary{}, err
	}
	if sum.Clusters == nil {
		return ClusterSummary{}, &ShapeError{Op: op, Reason: "missing clusters"}
	}
	return sum, nil
}

// get performs one GET and decodes the JSON body into dst.
func (s *httpSource) get(ctx context.Context, op, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20)) // 4 MB cap
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("datasource: %s: %w", op, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{Op: op, Err: fmt.Errorf("unexpected status %d: %.200s", resp.StatusCode, string(body))}
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return &ShapeError{Op: op, Reason: err.Error()}
	}
	return nil
}

// ─── CONVERSION ───────────────────────────────────────────────────────────────

func (c candidateJSON) toCandidate(customerID string) (advisory.Candidate, error) {
	if strings.TrimSpace(c.ID) == "" {
		return advisory.Candidate{}, fmt.Errorf("missing id")
	}
	if strings.TrimSpace(c.ProductCode) == "" && strings.TrimSpace(c.ProductName) == "" {
		return advisory.Candidate{}, fmt.Errorf("missing product_code and product_name")
	}
	code := c.ProductCode
	if code == "" {
		code = c.ProductName
	}
	return advisory.Candidate{
		ID:                    c.ID,
		CustomerID:            customerID,
		ProductCode:           code,
		ProductDisplayName:    c.ProductName,
		AcceptanceProbability: normalizeProbability(c.AcceptanceProbability),
		ExpectedRevenue:       normalizeRevenue(c.ExpectedRevenue),
		Narrative:             strings.TrimSpace(c.Narrative),
		CustomerName:          c.CustomerName,
		ClusterID:             c.ClusterID,
		ClusterLabel:          c.ClusterLabel,
		Segment:               c.Segment,
	}, nil
}

func (s snapshotJSON) toSnapshot() advisory.CustomerSnapshot {
	return advisory.CustomerSnapshot{
		CustomerID:   s.CustomerID,
		DisplayName:  s.Name,
		ClusterID:    s.ClusterID,
		ClusterLabel: s.ClusterLabel,
		Segment:      s.Segment,
		Profession:   s.Profession,
		AgeRange:     s.AgeRange,
		ExactAge:     s.Age,
		Gender:       s.Gender,
	}
}

func toAllocation(m map[string]float64) advisory.Allocation {
	out := make(advisory.Allocation, len(m))
	for k, v := range m {
		out[advisory.Category(k)] = v
	}
	return out
}

// normalizeProbability accepts either a fraction or a percentage. Anything
// outside both ranges is treated as absent.
func normalizeProbability(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	if v > 1 && v <= 100 {
		v /= 100
	}
	if v < 0 || v > 1 {
		return nil
	}
	return &v
}

func normalizeRevenue(r *float64) *float64 {
	if r == nil || *r < 0 {
		return nil
	}
	v := *r
	return &v
}
