package exemplar

import "github.com/nyashahama/advisory-drafting-backend/internal/advisory"

// builtIns ship with the service. Their ids are reserved: they cannot be
// deleted and stored records reusing them are ignored. Categories are the
// persona category slugs. Responses may use {name}, {product} and {benefit}.
var builtIns = []advisory.Exemplar{
	{
		ID:        "builtin-growth-young-digital",
		Category:  "young-digital",
		Tone:      advisory.ToneGrowth,
		Service:   "Mobile Banking App",
		Situation: "Young customer who banks mostly on their phone and keeps a growing balance idle.",
		Response:  "Since you already do most of your banking on the go, {product} lets you put that balance to work in a few taps.",
	},
	{
		ID:        "builtin-growth-wealth-builders",
		Category:  "wealth-builders",
		Tone:      advisory.ToneGrowth,
		Service:   "Investment Fund",
		Situation: "Established professional with surplus savings and no investment holdings.",
		Response:  "With your savings building steadily, {product} is a natural way to grow them further over the long run.",
	},
	{
		ID:        "builtin-security-families",
		Category:  "families",
		Tone:      advisory.ToneSecurity,
		Service:   "Home Insurance",
		Situation: "Family with a mortgage and dependants but limited cover.",
		Response:  "Protecting what you have built for your family matters, and {product} helps keep the unexpected from becoming a setback.",
	},
	{
		ID:        "builtin-security-retirees",
		Category:  "retirees",
		Tone:      advisory.ToneSecurity,
		Service:   "Fixed Deposit",
		Situation: "Retired customer focused on preserving capital and a steady income.",
		Response:  "Many customers in your position value steady, predictable progress, and {product} is built with that in mind.",
	},
	{
		ID:        "builtin-concierge-entrepreneurs",
		Category:  "entrepreneurs",
		Tone:      advisory.ToneConcierge,
		Service:   "Business Credit Line",
		Situation: "Business owner whose cash flow varies month to month.",
		Response:  "Running a business means cash flow rarely follows a straight line, and {product} gives you room to act when opportunities come up.",
	},
	{
		ID:        "builtin-concierge-mass-market",
		Category:  "mass-market",
		Tone:      advisory.ToneConcierge,
		Service:   "Savings Account",
		Situation: "Customer with a basic account looking to start saving regularly.",
		Response:  "Setting aside a little each month adds up, and {product} makes it easy to start at a pace that suits you.",
	},
}

// IsBuiltIn reports whether id is reserved for a built-in exemplar.
func IsBuiltIn(id string) bool {
	for _, ex := range builtIns {
		if ex.ID == id {
			return true
		}
	}
	return false
}

// BuiltIns returns a copy of the built-in exemplars.
func BuiltIns() []advisory.Exemplar {
	out := make([]advisory.Exemplar, len(builtIns))
	copy(out, builtIns)
	return out
}
