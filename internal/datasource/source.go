// Package datasource defines the interface to the external recommendation
// data service and provides an HTTP-backed implementation.
//
// Every failure mode (not found, transport failure, malformed response) is
// reported as an error. The resolver treats them identically and uses Kind only
// to label its logs.
package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/nyashahama/advisory-drafting-backend/internal/advisory"
)

// ─── RESULT SHAPES ────────────────────────────────────────────────────────────

// Explanation is the narrative the batch job attached to a recommendation.
type Explanation struct {
	Summary               string   `json:"summary"`
	ClusterInterpretation string   `json:"cluster_interpretation"`
	KeyBenefits           []string `json:"key_benefits"`
}

// Detail is the full recommendation record for one customer. Snapshot is
// always non-nil on a successful call; the other fields are optional.
type Detail struct {
	Snapshot           *advisory.CustomerSnapshot
	RecommendedService *advisory.Candidate
	Explanation        *Explanation
	Portfolio          *advisory.PortfolioFitProfile
}

// Cluster is one row of the batch-run cluster summary.
type Cluster struct {
	ClusterID int    `json:"cluster_id"`
	Label     string `json:"label"`
	Size      int    `json:"size"`
}

// ClusterSummary describes the most recent batch run.
type ClusterSummary struct {
	RunID    string    `json:"run_id"`
	Clusters []Cluster `json:"clusters"`
}

// Label returns the label for clusterID, or "" when unknown.
func (s ClusterSummary) Label(clusterID int) string {
	for _, c := range s.Clusters {
		if c.ClusterID == clusterID {
			return c.Label
		}
	}
	return ""
}

// ─── SOURCE INTERFACE ─────────────────────────────────────────────────────────

// Source is the interface the resolver uses to reach the data service.
// Tests inject a stub that returns canned responses.
//
// Implementations must be safe to call concurrently.
type Source interface {
	// ListCandidates returns every recommendation held for customerID.
	ListCandidates(ctx context.Context, customerID string) ([]advisory.Candidate, error)

	// GetDetail returns the snapshot and headline recommendation for
	// customerID.
	GetDetail(ctx context.Context, customerID string) (Detail, error)

	// GetClusterSummary returns the latest batch-run summary. Optional
	// enrichment; callers must tolerate an error.
	GetClusterSummary(ctx context.Context) (ClusterSummary, error)
}

// ─── ERRORS ───────────────────────────────────────────────────────────────────

// ErrNotFound is returned when the service has no record for the request.
var ErrNotFound = errors.New("datasource: not found")

// TransportError wraps a network, timeout or non-2xx failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("datasource: %s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ShapeError reports a response that decoded but lacks required fields.
type ShapeError struct {
	Op     string
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("datasource: %s: malformed response: %s", e.Op, e.Reason)
}

// Kind labels err for logging: "not_found", "transport", "shape", or "unknown".
func Kind(err error) string {
	var te *TransportError
	var se *ShapeError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.As(err, &se):
		return "shape"
	case errors.As(err, &te), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "transport"
	default:
		return "unknown"
	}
}
