// Package synth builds the deterministic fallback content shown when the data
// service has no portfolio or narrative for a customer: a persona-driven
// portfolio-fit profile and a templated narrative. Nothing here uses unseeded
// randomness; the same inputs always produce the same output.
package synth

import "github.com/nyashahama/advisory-drafting-backend/internal/advisory"

// Persona is the fixed description of one customer cluster.
type Persona struct {
	ClusterID int
	Label     string
	// Category is the short slug exemplars use to target this persona.
	Category       string
	Focus          string
	Interpretation string
	Ideal          advisory.Allocation
	Benefits       []string
	PreferredTone  advisory.Tone
}

// DefaultClusterID marks the default persona. It is never a real cluster id.
const DefaultClusterID = -1

// baselineValue is the flat "unknown" value used for every current category.
const baselineValue = 50

var personas = []Persona{
	{
		ClusterID:      0,
		Label:          "Young Digital Savers",
		Category:       "young-digital",
		Focus:          "They manage most of their money on mobile and are building their first savings habit.",
		Interpretation: "Early-career customers with high digital engagement and modest balances. They respond to convenience and automation more than to rate differences.",
		Ideal: advisory.Allocation{
			advisory.CategorySavings:     70,
			advisory.CategoryInvestments: 35,
			advisory.CategoryCredit:      30,
			advisory.CategoryInsurance:   25,
			advisory.CategoryDigital:     90,
		},
		Benefits:      []string{"Automated round-ups make saving effortless", "Everything is managed from the mobile app"},
		PreferredTone: advisory.ToneGrowth,
	},
	{
		ClusterID:      1,
		Label:          "Established Wealth Builders",
		Category:       "wealth-builders",
		Focus:          "They hold healthy balances and are looking for their money to work harder.",
		Interpretation: "Mid-career customers with stable income and surplus cash. Under-invested relative to their capacity, with appetite for long-term growth.",
		Ideal: advisory.Allocation{
			advisory.CategorySavings:     55,
			advisory.CategoryInvestments: 85,
			advisory.CategoryCredit:      40,
			advisory.CategoryInsurance:   60,
			advisory.CategoryDigital:     60,
		},
		Benefits:      []string{"Diversifies idle cash into long-term growth", "Dedicated reviews with a relationship advisor"},
		PreferredTone: advisory.ToneGrowth,
	},
	{
		ClusterID:      2,
		Label:          "Credit-Reliant Families",
		Category:       "families",
		Focus:          "They juggle household commitments and value predictable monthly costs.",
		Interpretation: "Households with dependants, regular credit usage and tight monthly budgets. Stability and protection matter more than returns.",
		Ideal: advisory.Allocation{
			advisory.CategorySavings:     45,
			advisory.CategoryInvestments: 30,
			advisory.CategoryCredit:      75,
			advisory.CategoryInsurance:   65,
			advisory.CategoryDigital:     50,
		},
		Benefits:      []string{"Predictable repayments that fit the family budget", "Protection for the people who depend on them"},
		PreferredTone: advisory.ToneSecurity,
	},
	{
		ClusterID:      3,
		Label:          "Conservative Retirees",
		Category:       "retirees",
		Focus:          "They prioritise preserving what they have built and prefer personal service.",
		Interpretation: "Retired or near-retirement customers with high savings balances and low credit usage. Capital preservation and trust drive decisions.",
		Ideal: advisory.Allocation{
			advisory.CategorySavings:     85,
			advisory.CategoryInvestments: 45,
			advisory.CategoryCredit:      15,
			advisory.CategoryInsurance:   70,
			advisory.CategoryDigital:     30,
		},
		Benefits:      []string{"Keeps savings accessible and well protected", "Personal support from a named advisor"},
		PreferredTone: advisory.ToneSecurity,
	},
	{
		ClusterID:      4,
		Label:          "Entrepreneurial Professionals",
		Category:       "entrepreneurs",
		Focus:          "They mix personal and business finances and move quickly on opportunities.",
		Interpretation: "Self-employed and professional customers with variable income and high transaction volumes. They value flexibility and speed of access to capital.",
		Ideal: advisory.Allocation{
			advisory.CategorySavings:     50,
			advisory.CategoryInvestments: 70,
			advisory.CategoryCredit:      65,
			advisory.CategoryInsurance:   50,
			advisory.CategoryDigital:     80,
		},
		Benefits:      []string{"Flexible access to funds when opportunities arise", "Fewer manual steps between personal and business money"},
		PreferredTone: advisory.ToneConcierge,
	},
	{
		ClusterID:      5,
		Label:          "Emerging Mass Market",
		Category:       "mass-market",
		Focus:          "They are building financial stability one step at a time.",
		Interpretation: "Customers with everyday banking needs and limited product holdings. Simple, low-commitment products build engagement best.",
		Ideal: advisory.Allocation{
			advisory.CategorySavings:     60,
			advisory.CategoryInvestments: 25,
			advisory.CategoryCredit:      45,
			advisory.CategoryInsurance:   40,
			advisory.CategoryDigital:     65,
		},
		Benefits:      []string{"Simple to start with no long-term commitment", "Builds a stronger financial safety net"},
		PreferredTone: advisory.ToneConcierge,
	},
}

var defaultPersona = Persona{
	ClusterID:      DefaultClusterID,
	Label:          "General Customer",
	Category:       "general",
	Focus:          "Their profile suggests room to get more from their banking relationship.",
	Interpretation: "No cluster assignment is available for this customer, so a balanced general profile is shown.",
	Ideal: advisory.Allocation{
		advisory.CategorySavings:     60,
		advisory.CategoryInvestments: 50,
		advisory.CategoryCredit:      40,
		advisory.CategoryInsurance:   50,
		advisory.CategoryDigital:     60,
	},
	Benefits:      []string{"Tailored to their current banking relationship"},
	PreferredTone: advisory.ToneConcierge,
}

// productBenefits holds two benefit lines per product family.
var productBenefits = map[advisory.ProductCategory][]string{
	advisory.ProductLoan:       {"Clear, fixed repayment schedule", "Funds available quickly once approved"},
	advisory.ProductInvestment: {"Long-term growth potential for surplus cash", "Regular portfolio reviews"},
	advisory.ProductInsurance:  {"Cover that fits their life stage", "Straightforward claims support"},
	advisory.ProductSavings:    {"Competitive interest on everyday balances", "Easy access when they need it"},
	advisory.ProductDigital:    {"Full control from their phone", "Real-time alerts and insights"},
	advisory.ProductGeneric:    {"Designed around how they already bank", "Simple to set up with their advisor"},
}
