package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"casedrop-backend/internal/models"
)

// SeedDemoCatalog installs a starter case when the catalog is empty so
// a fresh development instance is immediately playable. Production
// catalog data comes from the admin path.
func SeedDemoCatalog(ctx context.Context, store *RedisService) error {
	const caseID = "starter"

	if _, err := store.GetCase(ctx, caseID); err == nil {
		return nil
	} else if !errors.Is(err, models.ErrCaseNotFound) {
		return err
	}

	cfg := &models.CaseConfig{
		ID:     caseID,
		Name:   "Starter Case",
		Price:  500,
		Active: true,
		TierTable: map[string]float64{
			"common":    60,
			"uncommon":  25,
			"rare":      10,
			"epic":      4,
			"legendary": 1,
		},
		Multiplier: 1.0,
		CreatedAt:  time.Now().Unix(),
	}
	if err := store.SaveCase(ctx, cfg); err != nil {
		return fmt.Errorf("failed to seed case: %v", err)
	}

	items := []models.CaseItem{
		{ID: "starter-common", Name: "Rusty Token", Tier: "common", BaseValue: 100, Category: "token", Active: true},
		{ID: "starter-uncommon", Name: "Bronze Token", Tier: "uncommon", BaseValue: 300, Category: "token", Active: true},
		{ID: "starter-rare", Name: "Silver Token", Tier: "rare", BaseValue: 1000, Category: "token", Active: true},
		{ID: "starter-epic", Name: "Gold Token", Tier: "epic", BaseValue: 2500, Category: "token", Active: true},
		{ID: "starter-legendary", Name: "Platinum Token", Tier: "legendary", BaseValue: 5000, Category: "token", Active: true},
	}
	for i := range items {
		if err := store.SaveItem(ctx, &items[i]); err != nil {
			return fmt.Errorf("failed to seed item %s: %v", items[i].ID, err)
		}
		if err := store.AddItemToCase(ctx, caseID, items[i].ID); err != nil {
			return fmt.Errorf("failed to link item %s: %v", items[i].ID, err)
		}
	}

	return nil
}
