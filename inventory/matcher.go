// Fuzzy product matching.
//
// Resolves a free-text product mention (usually the productName field the
// intent resolver extracted, occasionally a raw user phrase) to the closest
// catalog entry. Matching is case-insensitive and tolerant of plurals and
// small spelling differences; a relevance threshold keeps unrelated queries
// from latching onto arbitrary items.

package inventory

import (
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// BestMatch returns the catalog item whose name best matches query, or nil
// when the catalog is empty or no candidate clears the relevance threshold.
// Ties keep the first item in catalog order.
func BestMatch(catalog []CatalogItem, query string) *CatalogItem {
	if query == "" {
		return nil
	}

	best := -1
	bestRank := 0
	for i := range catalog {
		rank, ok := matchRank(query, catalog[i].ProductName)
		if !ok {
			continue
		}
		if best == -1 || rank < bestRank {
			best = i
			bestRank = rank
		}
	}

	if best == -1 {
		return nil
	}
	return &catalog[best]
}

// matchRank scores query against a product name. Rank is an edit distance:
// lower is closer, with 0 an exact case-insensitive match. Both directions
// are tried so "laptops" still finds "Laptop" and "LED" still finds
// "LED Bulb".
func matchRank(query, name string) (int, bool) {
	rank := -1
	if r := fuzzy.RankMatchNormalizedFold(query, name); r >= 0 {
		rank = r
	}
	if r := fuzzy.RankMatchNormalizedFold(name, query); r >= 0 && (rank == -1 || r < rank) {
		rank = r
	}
	if rank == -1 {
		return 0, false
	}

	// A subsequence hit with a large distance means the query shares only a
	// few letters with the name; treat it as noise.
	if rank > 2*utf8.RuneCountInString(query) {
		return 0, false
	}
	return rank, true
}
