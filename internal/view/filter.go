// Package view holds the client-local view state: the last full fetch
// snapshot and the filter/sort engine that derives the rendered subset.
package view

import (
	"sort"
	"strings"

	"github.com/dmbarbosa/market-radar/internal/classify"
	"github.com/dmbarbosa/market-radar/internal/models"
)

// CategoryAll is the sentinel that disables category filtering.
const CategoryAll = "all"

// Sort keys. Score sorts descending; validation sorts ascending. The
// asymmetry is inherited dashboard behavior, kept on purpose.
const (
	SortScore      = "score"
	SortValidation = "validation"
)

// Filters is the active filter/search/sort selection. The zero value means
// no filtering and score-descending order.
type Filters struct {
	Category string
	Search   string
	Sort     string
}

// Apply returns the filtered and ordered subset of all. The input slice is
// never mutated; ties keep their original order (stable sort).
func (f Filters) Apply(all []models.Opportunity) []models.Opportunity {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]models.Opportunity, 0, len(all))
	for i := range all {
		o := &all[i]
		if f.Category != "" && f.Category != CategoryAll && o.Category() != f.Category {
			continue
		}
		if search != "" && !matchesSearch(o, search) {
			continue
		}
		out = append(out, all[i])
	}

	switch f.Sort {
	case SortValidation:
		sort.SliceStable(out, func(i, j int) bool {
			vi, _ := out[i].Signal(classify.SignalMarketValidation)
			vj, _ := out[j].Signal(classify.SignalMarketValidation)
			return vi < vj
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Score > out[j].Score
		})
	}

	return out
}

// matchesSearch reports whether any of keyword, cluster or buying-intent
// text contains the lowercased query.
func matchesSearch(o *models.Opportunity, query string) bool {
	if strings.Contains(strings.ToLower(o.Keyword), query) {
		return true
	}
	if strings.Contains(strings.ToLower(o.Category()), query) {
		return true
	}
	return strings.Contains(strings.ToLower(o.Meta.BuyingIntent), query)
}
