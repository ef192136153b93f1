package engine

import (
	"log/slog"

	"casedrop-backend/internal/models"
)

// SelectItem picks exactly one pool entry for the resolved tier using a
// second independent draw.
//
// An empty tier is a pool misconfiguration: rather than failing the
// request, selection falls back to the whole pool and the condition is
// logged as a configuration warning. An entirely empty pool does fail.
func SelectItem(pool []models.PoolEntry, tier string, r float64, log *slog.Logger) (models.PoolEntry, error) {
	if len(pool) == 0 {
		return models.PoolEntry{}, models.ErrEmptyPool
	}

	filtered := make([]models.PoolEntry, 0, len(pool))
	for _, e := range pool {
		if e.Item.Tier == tier {
			filtered = append(filtered, e)
		}
	}

	if len(filtered) == 0 {
		if log != nil {
			log.Warn("no items in resolved tier, falling back to full pool",
				"tier", tier, "pool_size", len(pool))
		}
		filtered = pool
	}

	idx := int(r * float64(len(filtered)))
	if idx >= len(filtered) {
		idx = len(filtered) - 1
	}
	return filtered[idx], nil
}
