// Package compliance composes outreach drafts and screens them against the
// prohibited-phrase and disclaimer policy.
//
// A draft moves from Drafting to an evaluated state (passed, warned or
// blocked) and is re-evaluated synchronously on every body change. Blocked
// is a terminal evaluated state, not an error; only CanSend reports it as
// one.
package compliance

import (
	"errors"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/nyashahama/advisory-drafting-backend/internal/advisory"
)

var (
	// ErrBlocked is returned by CanSend for a draft containing prohibited
	// content.
	ErrBlocked = errors.New("compliance: draft contains prohibited content")

	// ErrEmptyDraft is returned by CanSend for a blank draft.
	ErrEmptyDraft = errors.New("compliance: draft body is empty")
)

// Engine evaluates and composes drafts under one Policy. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	policy Policy
}

// NewEngine returns an Engine enforcing p.
func NewEngine(p Policy) *Engine {
	return &Engine{policy: p}
}

// Policy returns the policy in force.
func (e *Engine) Policy() Policy { return e.policy }

// Evaluate screens body. Every prohibited phrase found is reported, in
// policy order.
func (e *Engine) Evaluate(body string) advisory.ComplianceResult {
	lower := strings.ToLower(body)

	matches := []string{}
	for _, p := range e.policy.ProhibitedPhrases {
		if strings.Contains(lower, p) {
			matches = append(matches, p)
		}
	}

	hasDisclaimer := false
	for _, m := range e.policy.DisclaimerMarkers {
		if strings.Contains(lower, m) {
			hasDisclaimer = true
			break
		}
	}

	res := advisory.ComplianceResult{
		ProhibitedMatches: matches,
		NeedsDisclaimer:   !hasDisclaimer,
		TooBrief:          utf8.RuneCountInString(strings.TrimSpace(body)) < e.policy.MinLength,
	}
	switch {
	case len(matches) > 0:
		res.State = advisory.ComplianceBlocked
	case res.NeedsDisclaimer || res.TooBrief:
		res.State = advisory.ComplianceWarned
	default:
		res.State = advisory.CompliancePassed
	}
	return res
}

// DraftContext is the input to Compose.
type DraftContext struct {
	Customer  advisory.CustomerSnapshot
	Candidate advisory.Candidate
	Tone      advisory.Tone
	// ClusterCategory is the persona category slug for the customer's
	// cluster, used for exemplar matching.
	ClusterCategory string
	// Benefit is an optional one-line benefit statement for the product.
	Benefit string
}

// Compose builds a fresh draft for ctx from the tone template and the best
// matching exemplar in library, then evaluates it.
func (e *Engine) Compose(ctx DraftContext, library []advisory.Exemplar) advisory.DraftMessage {
	tone := ctx.Tone
	if _, ok := toneStyles[tone]; !ok {
		tone = advisory.ToneConcierge
	}
	style := styleFor(tone)

	product := ctx.Candidate.ProductName()
	category := advisory.CategorizeProduct(product + " " + ctx.Candidate.ProductCode)
	name := firstName(ctx.Customer.Name())
	if name == "" {
		name = "there"
	}

	if product == "" {
		product = "this service"
	}

	// The primary exemplar's response is the style reference paragraph;
	// without one the generic paragraph stands in.
	selected := SelectExemplars(library, tone, ctx.ClusterCategory, category)
	reference := genericReference
	if ref, ok := PrimaryReference(selected); ok {
		reference = ref.Response
	}

	body := strings.Join([]string{
		fill(style.greeting, name, product, ctx.Benefit),
		fill(style.valueProp, name, product, ctx.Benefit),
		fill(reference, name, product, ctx.Benefit),
		style.callToAction,
		style.signOff,
	}, "\n\n")

	ids := make([]string, 0, len(selected))
	for _, ex := range selected {
		ids = append(ids, ex.ID)
	}

	d := advisory.DraftMessage{
		Body:            body,
		Tone:            tone,
		CustomerID:      ctx.Customer.CustomerID,
		CustomerName:    ctx.Customer.Name(),
		ProductCode:     ctx.Candidate.ProductCode,
		ProductName:     ctx.Candidate.ProductName(),
		ProductCategory: category,
		ExemplarIDs:     ids,
	}
	return d.WithResult(e.Evaluate(body))
}

// Edit replaces the draft body and re-evaluates it.
func (e *Engine) Edit(d advisory.DraftMessage, body string) advisory.DraftMessage {
	d.Body = body
	d.ExemplarIDs = slices.Clone(d.ExemplarIDs)
	return d.WithResult(e.Evaluate(body))
}

// ApplyDisclaimer appends the product-specific disclaimer when the draft
// needs one and re-evaluates the result. A draft that already carries a
// disclaimer is returned unchanged.
func (e *Engine) ApplyDisclaimer(d advisory.DraftMessage) advisory.DraftMessage {
	if !e.Evaluate(d.Body).NeedsDisclaimer {
		return e.Edit(d, d.Body)
	}
	body := strings.TrimRight(d.Body, " \n\t")
	if body != "" {
		body += "\n\n"
	}
	return e.Edit(d, body+DisclaimerFor(d.ProductCategory))
}

// CanSend reports whether d may be sent. Warned drafts may be sent; blocked
// or empty drafts may not.
func (e *Engine) CanSend(d advisory.DraftMessage) error {
	if strings.TrimSpace(d.Body) == "" {
		return ErrEmptyDraft
	}
	if e.Evaluate(d.Body).State == advisory.ComplianceBlocked {
		return ErrBlocked
	}
	return nil
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
