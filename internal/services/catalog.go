package services

import (
	"context"
	"sync"
	"time"

	"casedrop-backend/internal/models"
)

// CatalogStore is the read path the cache sits in front of.
type CatalogStore interface {
	GetCase(ctx context.Context, id string) (*models.CaseConfig, error)
	GetCasePool(ctx context.Context, caseID string) ([]models.PoolEntry, error)
}

// CatalogCache is a short-TTL in-process cache over the catalog.
// Catalog data is read-only from the engine's perspective; staleness
// only affects which configuration a new opening uses, never in-flight
// consistency, so aggressive caching is safe.
type CatalogCache struct {
	store CatalogStore
	ttl   time.Duration

	mu    sync.Mutex
	cases map[string]cachedCase
	pools map[string]cachedPool
}

type cachedCase struct {
	cfg     *models.CaseConfig
	expires time.Time
}

type cachedPool struct {
	pool    []models.PoolEntry
	expires time.Time
}

func NewCatalogCache(store CatalogStore, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		store: store,
		ttl:   ttl,
		cases: make(map[string]cachedCase),
		pools: make(map[string]cachedPool),
	}
}

func (c *CatalogCache) Case(ctx context.Context, id string) (*models.CaseConfig, error) {
	c.mu.Lock()
	if entry, ok := c.cases[id]; ok && time.Now().Before(entry.expires) {
		c.mu.Unlock()
		return entry.cfg, nil
	}
	c.mu.Unlock()

	cfg, err := c.store.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cases[id] = cachedCase{cfg: cfg, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return cfg, nil
}

func (c *CatalogCache) Pool(ctx context.Context, caseID string) ([]models.PoolEntry, error) {
	c.mu.Lock()
	if entry, ok := c.pools[caseID]; ok && time.Now().Before(entry.expires) {
		c.mu.Unlock()
		return entry.pool, nil
	}
	c.mu.Unlock()

	pool, err := c.store.GetCasePool(ctx, caseID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.pools[caseID] = cachedPool{pool: pool, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return pool, nil
}

// Invalidate drops any cached state for one case. The admin path calls
// this after an out-of-band catalog update.
func (c *CatalogCache) Invalidate(caseID string) {
	c.mu.Lock()
	delete(c.cases, caseID)
	delete(c.pools, caseID)
	c.mu.Unlock()
}
