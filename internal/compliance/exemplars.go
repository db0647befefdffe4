package compliance

import (
	"slices"
	"strings"

	"github.com/nyashahama/advisory-drafting-backend/internal/advisory"
)

// maxExemplars is the number of exemplars handed to drafting as context.
const maxExemplars = 3

// SelectExemplars returns up to three exemplars matching tone. Those whose
// category matches the customer's cluster category come first, then those
// matching the product family; library order is kept within each group.
func SelectExemplars(library []advisory.Exemplar, tone advisory.Tone, clusterCategory string, product advisory.ProductCategory) []advisory.Exemplar {
	out := make([]advisory.Exemplar, 0, len(library))
	for _, ex := range library {
		if ex.Tone == tone {
			out = append(out, ex)
		}
	}

	rank := func(ex advisory.Exemplar) int {
		switch {
		case clusterCategory != "" && strings.EqualFold(ex.Category, clusterCategory):
			return 0
		case matchesProduct(ex, product):
			return 1
		default:
			return 2
		}
	}
	slices.SortStableFunc(out, func(a, b advisory.Exemplar) int {
		return rank(a) - rank(b)
	})

	if len(out) > maxExemplars {
		out = out[:maxExemplars]
	}
	return out
}

// PrimaryReference returns the first exemplar with both a situation and a
// response.
func PrimaryReference(selected []advisory.Exemplar) (advisory.Exemplar, bool) {
	for _, ex := range selected {
		if ex.Complete() {
			return ex, true
		}
	}
	return advisory.Exemplar{}, false
}

func matchesProduct(ex advisory.Exemplar, product advisory.ProductCategory) bool {
	if product == "" || product == advisory.ProductGeneric {
		return false
	}
	if strings.EqualFold(ex.Category, string(product)) {
		return true
	}
	return ex.Service != "" && advisory.CategorizeProduct(ex.Service) == product
}
