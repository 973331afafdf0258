// Package match decides whether a listing satisfies a subscription's
// filter predicate. It is pure and touches no persisted state.
package match

import (
	"strings"

	"github.com/bali1973/alo17-alerts/pkg/db/models"
)

// Matches reports whether the listing satisfies every present filter on the
// subscription. Absent filters are vacuously true, so a subscription with no
// filters matches every listing. Malformed keyword data is treated as an
// absent filter.
func Matches(listing models.Listing, sub models.Subscription) bool {
	if sub.Category != nil && *sub.Category != "" && listing.Category != *sub.Category {
		return false
	}

	if sub.Subcategory != nil && *sub.Subcategory != "" && listing.Subcategory != *sub.Subcategory {
		return false
	}

	if kw := DecodeKeywords(sub.Keywords); kw.State == FilterPresent {
		if !matchesAnyKeyword(listing, kw.Keywords) {
			return false
		}
	}

	if sub.PriceMin != nil && listing.Price.LessThan(*sub.PriceMin) {
		return false
	}
	if sub.PriceMax != nil && listing.Price.GreaterThan(*sub.PriceMax) {
		return false
	}

	if sub.Location != nil && strings.TrimSpace(*sub.Location) != "" {
		want := strings.ToLower(strings.TrimSpace(*sub.Location))
		if !strings.Contains(strings.ToLower(listing.Location), want) {
			return false
		}
	}

	return true
}

// matchesAnyKeyword applies OR semantics within the keyword list against the
// listing's title and description.
func matchesAnyKeyword(listing models.Listing, keywords []string) bool {
	haystack := strings.ToLower(listing.Title + " " + listing.Description)
	for _, kw := range keywords {
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
