package compliance

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy is the screening rule set. Matching is case-insensitive substring
// matching for both lists.
type Policy struct {
	ProhibitedPhrases []string `yaml:"prohibited_phrases"`
	DisclaimerMarkers []string `yaml:"disclaimer_markers"`
	// MinLength is the character count below which a body is considered too
	// brief to send without a warning.
	MinLength int `yaml:"min_length"`
}

// DefaultPolicy returns the built-in rule set.
func DefaultPolicy() Policy {
	return Policy{
		ProhibitedPhrases: []string{"guaranteed returns", "risk-free", "100% safe"},
		DisclaimerMarkers: []string{"terms", "conditions", "subject to", "please review", "apr", "annual percentage rate"},
		MinLength:         50,
	}
}

// LoadPolicy reads a YAML policy file. Keys absent from the file keep their
// default values. An empty path returns DefaultPolicy.
func LoadPolicy(path string) (Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("compliance: read policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes a YAML policy document over the defaults. Unknown keys
// are rejected.
func ParsePolicy(data []byte) (Policy, error) {
	p := DefaultPolicy()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Policy{}, fmt.Errorf("compliance: parse policy: %w", err)
	}

	p.ProhibitedPhrases = normalise(p.ProhibitedPhrases)
	p.DisclaimerMarkers = normalise(p.DisclaimerMarkers)
	if err := p.validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

func (p Policy) validate() error {
	var errs []error
	if p.MinLength < 0 {
		errs = append(errs, fmt.Errorf("min_length must be >= 0, got %d", p.MinLength))
	}
	if len(p.DisclaimerMarkers) == 0 {
		errs = append(errs, errors.New("disclaimer_markers must not be empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("compliance: invalid policy: %w", err)
	}
	return nil
}

// normalise lower-cases and trims phrases, dropping blanks and duplicates.
func normalise(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
