package compliance

import (
	"strings"

	"github.com/nyashahama/advisory-drafting-backend/internal/advisory"
)

// ─── TONE STYLES ──────────────────────────────────────────────────────────────

// toneStyle is the phrasing rule set for one tone. Templates use {name},
// {product} and {benefit} placeholders.
type toneStyle struct {
	greeting     string
	valueProp    string
	callToAction string
	signOff      string
}

var toneStyles = map[advisory.Tone]toneStyle{
	advisory.ToneGrowth: {
		greeting:     "Hi {name},",
		valueProp:    "I've been reviewing your accounts and {product} could help your money work harder for you. {benefit}",
		callToAction: "Shall we set up a quick call this week to get you started?",
		signOff:      "Best,\nYour relationship advisor",
	},
	advisory.ToneSecurity: {
		greeting:     "Dear {name},",
		valueProp:    "{product} is designed to add stability and peace of mind to your finances. {benefit}",
		callToAction: "I would be glad to walk you through the details whenever it suits you.",
		signOff:      "Kind regards,\nYour relationship advisor",
	},
	advisory.ToneConcierge: {
		greeting:     "Good day {name},",
		valueProp:    "I've personally reviewed your profile and believe {product} is a strong fit for you. {benefit}",
		callToAction: "Simply reply to this message and I'll arrange everything on your behalf.",
		signOff:      "Warm regards,\nYour personal banker",
	},
}

// genericReference stands in for an exemplar response when no exemplar
// qualifies as a style reference.
const genericReference = "I'm happy to answer any questions and tailor the details to what matters most to you."

func styleFor(t advisory.Tone) toneStyle {
	if s, ok := toneStyles[t]; ok {
		return s
	}
	return toneStyles[advisory.ToneConcierge]
}

// fill substitutes the placeholders in tmpl.
func fill(tmpl, name, product, benefit string) string {
	r := strings.NewReplacer("{name}", name, "{product}", product, "{benefit}", benefit)
	return strings.TrimSpace(r.Replace(tmpl))
}

// ─── DISCLAIMERS ──────────────────────────────────────────────────────────────

var disclaimers = map[advisory.ProductCategory]string{
	advisory.ProductLoan: "Credit is subject to status and affordability checks. The annual percentage rate (APR) " +
		"you are offered will depend on your circumstances. Please review the full terms and conditions before applying.",
	advisory.ProductInvestment: "The value of investments can go down as well as up, and you may get back less than " +
		"you invest. Past performance is not a reliable indicator of future results. Please review the product terms before investing.",
	advisory.ProductInsurance: "Cover is subject to the policy terms, conditions and exclusions. Please review the " +
		"policy documents to make sure the cover meets your needs.",
	advisory.ProductGeneric: "This message is for information only and is subject to our standard terms and conditions. " +
		"Please review the product details before making a decision.",
}

// DisclaimerFor returns the boilerplate paragraph for a product family.
// Families without their own text use the generic paragraph.
func DisclaimerFor(c advisory.ProductCategory) string {
	if d, ok := disclaimers[c]; ok {
		return d
	}
	return disclaimers[advisory.ProductGeneric]
}
