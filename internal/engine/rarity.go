package engine

import (
	"fmt"
	"sort"

	"casedrop-backend/internal/models"
)

// ResolveTier maps one random draw to a tier label using the declared
// probability table.
//
// The draw is scaled by the table's actual sum, so a table that does
// not sum to exactly 100 still resolves over its full range, and
// matched against cumulative bounds walked rarest-first. Rarest-first
// ordering keeps the numeric error of the highest-value tiers inside
// the smallest cumulative interval.
func ResolveTier(table map[string]float64, r float64) (string, error) {
	if len(table) == 0 {
		return "", models.ErrZeroTierSum
	}

	type tierEntry struct {
		label string
		pct   float64
	}
	tiers := make([]tierEntry, 0, len(table))
	var sum float64
	for label, pct := range table {
		if pct < 0 {
			return "", fmt.Errorf("%w: tier %q is negative", models.ErrBadTierTable, label)
		}
		tiers = append(tiers, tierEntry{label, pct})
		sum += pct
	}
	if sum <= 0 {
		return "", models.ErrZeroTierSum
	}

	// Rarest first; label as tie-break so resolution is deterministic.
	sort.Slice(tiers, func(i, j int) bool {
		if tiers[i].pct != tiers[j].pct {
			return tiers[i].pct < tiers[j].pct
		}
		return tiers[i].label < tiers[j].label
	})

	scaled := r * sum
	var cum float64
	for _, t := range tiers {
		cum += t.pct
		if cum >= scaled {
			return t.label, nil
		}
	}
	// Floating error at the top of the range; the last tier owns it.
	return tiers[len(tiers)-1].label, nil
}
