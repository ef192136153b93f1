package models

import (
	"fmt"
	"math"
)

// TierSumTolerance absorbs floating error in hand-written tier tables.
const TierSumTolerance = 1e-6

// MinTiers is the smallest tier table a case may declare.
const MinTiers = 5

// CaseConfig is a purchasable randomized event: a price, a declared
// tier-probability table and an activity flag. Immutable from the
// engine's perspective; updated out-of-band by the admin path.
type CaseConfig struct {
	ID     string  `json:"id" redis:"id"`
	Name   string  `json:"name" redis:"name"`
	Price  int64   `json:"price" redis:"price"`
	Active bool    `json:"active" redis:"active"`

	// TierTable maps tier label to percentage; percentages sum to 100.
	TierTable map[string]float64 `json:"tier_table" redis:"tier_table"`

	// Multiplier scales item base values for this case. Either the
	// catalog stores pre-scaled values and this stays 1.0, or base
	// values with a per-case multiplier -- never both.
	Multiplier float64 `json:"multiplier" redis:"multiplier"`

	CreatedAt int64 `json:"created_at" redis:"created_at"`
}

// Validate checks the config at load time. A table that does not sum to
// 100 or a non-positive price is a configuration error, not a request
// error.
func (c *CaseConfig) Validate() error {
	if c.Price <= 0 {
		return fmt.Errorf("case %s: price must be positive", c.ID)
	}
	if len(c.TierTable) < MinTiers {
		return fmt.Errorf("case %s: %w: need at least %d tiers, have %d",
			c.ID, ErrBadTierTable, MinTiers, len(c.TierTable))
	}
	var sum float64
	for tier, pct := range c.TierTable {
		if pct < 0 {
			return fmt.Errorf("case %s: %w: tier %q has negative percentage", c.ID, ErrBadTierTable, tier)
		}
		sum += pct
	}
	if math.Abs(sum-100) > TierSumTolerance {
		return fmt.Errorf("case %s: %w: sum is %v", c.ID, ErrBadTierTable, sum)
	}
	return nil
}

// CaseItem is a catalog entry. Many items share a tier.
type CaseItem struct {
	ID        string `json:"id" redis:"id"`
	Name      string `json:"name" redis:"name"`
	Tier      string `json:"tier" redis:"tier"`
	BaseValue int64  `json:"base_value" redis:"base_value"`
	Category  string `json:"category" redis:"category"`
	Active    bool   `json:"active" redis:"active"`
}

// PoolEntry is one item of the eligible reward pool for a case,
// annotated with the applicable multiplier and its derived effective
// value. Computed per request, never persisted.
type PoolEntry struct {
	Item           CaseItem `json:"item"`
	Multiplier     float64  `json:"multiplier"`
	EffectiveValue int64    `json:"effective_value"`
}
