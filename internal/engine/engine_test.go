package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casedrop-backend/internal/engine"
	"casedrop-backend/internal/models"
)

type fakeCatalog struct {
	cfg  *models.CaseConfig
	pool []models.PoolEntry
}

func (f *fakeCatalog) Case(ctx context.Context, id string) (*models.CaseConfig, error) {
	if f.cfg == nil || f.cfg.ID != id {
		return nil, models.ErrCaseNotFound
	}
	return f.cfg, nil
}

func (f *fakeCatalog) Pool(ctx context.Context, caseID string) ([]models.PoolEntry, error) {
	return f.pool, nil
}

type fakeAccounts struct {
	account models.Account
}

func (f *fakeAccounts) GetAccount(ctx context.Context, playerID int64) (*models.Account, error) {
	a := f.account
	return &a, nil
}

type coordCall struct {
	stake   int64
	awarded int64
	event   models.EventType
	record  *models.HistoryRecord
}

type fakeCoordinator struct {
	calls   []coordCall
	results []error // error per call, nil = success
	balance int64
}

func (f *fakeCoordinator) Execute(ctx context.Context, playerID, stake, awarded int64, eventType models.EventType, rec *models.HistoryRecord) (int64, error) {
	f.calls = append(f.calls, coordCall{stake, awarded, eventType, rec})
	if len(f.results) > 0 {
		err := f.results[0]
		f.results = f.results[1:]
		if err != nil {
			return 0, err
		}
	}
	return f.balance, nil
}

type fixedDraws struct {
	draws []float64
}

func (f *fixedDraws) Draws(clientSeed string, nonce int64, count int) []float64 {
	return f.draws[:count]
}

func (f *fixedDraws) ServerSeedHash() string { return "testhash" }

func starterCase() *models.CaseConfig {
	return &models.CaseConfig{
		ID:     "starter",
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
	}
}

func starterPool() []models.PoolEntry {
	return poolOf(
		models.CaseItem{ID: "i-common", Name: "Common", Tier: "common", BaseValue: 100, Active: true},
		models.CaseItem{ID: "i-uncommon", Name: "Uncommon", Tier: "uncommon", BaseValue: 300, Active: true},
		models.CaseItem{ID: "i-rare", Name: "Rare", Tier: "rare", BaseValue: 1000, Active: true},
		models.CaseItem{ID: "i-epic", Name: "Epic", Tier: "epic", BaseValue: 2500, Active: true},
		models.CaseItem{ID: "i-legendary", Name: "Legendary", Tier: "legendary", BaseValue: 5000, Active: true},
	)
}

// Worked example: draws (0.50, 0.50) with the five-tier table resolve
// to the sole common item for 100, so the balance moves by -500 +100.
func TestOpenCaseWorkedExample(t *testing.T) {
	coord := &fakeCoordinator{balance: 1600} // 2000 - 500 + 100
	eng := engine.NewEngine(
		&fakeCatalog{cfg: starterCase(), pool: starterPool()},
		&fakeAccounts{account: models.Account{PlayerID: 7, ClientSeed: "seed", Nonce: 3, Balance: 2000, Version: 1}},
		coord,
		&fixedDraws{draws: []float64{0.50, 0.50}},
		nil, nil,
	)

	result, balance, err := eng.OpenCase(context.Background(), 7, "starter")
	require.NoError(t, err)

	assert.Equal(t, "i-common", result.Item.ID)
	assert.Equal(t, int64(100), result.Amount)
	assert.Equal(t, int64(1600), balance)
	assert.Equal(t, int64(3), result.Nonce)
	assert.Equal(t, "seed", result.ClientSeed)
	assert.Equal(t, "testhash", result.ServerSeedHash)

	require.Len(t, coord.calls, 1)
	call := coord.calls[0]
	assert.Equal(t, int64(500), call.stake)
	assert.Equal(t, int64(100), call.awarded)
	assert.Equal(t, models.EventCaseOpen, call.event)
	require.NotNil(t, call.record.CaseOpen)
	assert.Equal(t, "common", call.record.CaseOpen.Tier)
	assert.Equal(t, 0.50, call.record.CaseOpen.TierDraw)
}

func TestOpenCaseLegendaryDraw(t *testing.T) {
	coord := &fakeCoordinator{balance: 6500}
	eng := engine.NewEngine(
		&fakeCatalog{cfg: starterCase(), pool: starterPool()},
		&fakeAccounts{account: models.Account{PlayerID: 7, ClientSeed: "seed", Balance: 2000}},
		coord,
		&fixedDraws{draws: []float64{0.005, 0.1}},
		nil, nil,
	)

	result, _, err := eng.OpenCase(context.Background(), 7, "starter")
	require.NoError(t, err)
	assert.Equal(t, "i-legendary", result.Item.ID)
	assert.Equal(t, int64(5000), result.Amount)
}

func TestOpenCaseUnknownCase(t *testing.T) {
	eng := engine.NewEngine(
		&fakeCatalog{},
		&fakeAccounts{}, &fakeCoordinator{}, &fixedDraws{draws: []float64{0.5, 0.5}},
		nil, nil,
	)

	_, _, err := eng.OpenCase(context.Background(), 7, "missing")
	assert.ErrorIs(t, err, models.ErrCaseNotFound)
}

func TestOpenCaseInactiveCase(t *testing.T) {
	cfg := starterCase()
	cfg.Active = false

	eng := engine.NewEngine(
		&fakeCatalog{cfg: cfg, pool: starterPool()},
		&fakeAccounts{}, &fakeCoordinator{}, &fixedDraws{draws: []float64{0.5, 0.5}},
		nil, nil,
	)

	_, _, err := eng.OpenCase(context.Background(), 7, "starter")
	assert.ErrorIs(t, err, models.ErrCaseInactive)
}

func TestOpenCaseInvalidTierTableFailsFast(t *testing.T) {
	cfg := starterCase()
	cfg.TierTable["common"] = 70 // sums to 110 now

	coord := &fakeCoordinator{}
	eng := engine.NewEngine(
		&fakeCatalog{cfg: cfg, pool: starterPool()},
		&fakeAccounts{}, coord, &fixedDraws{draws: []float64{0.5, 0.5}},
		nil, nil,
	)

	_, _, err := eng.OpenCase(context.Background(), 7, "starter")
	assert.ErrorIs(t, err, models.ErrBadTierTable)
	assert.Empty(t, coord.calls, "no settlement may happen for a misconfigured case")
}

func TestOpenCaseRetriesOnConflict(t *testing.T) {
	coord := &fakeCoordinator{
		balance: 1600,
		results: []error{models.ErrConflict, nil},
	}
	eng := engine.NewEngine(
		&fakeCatalog{cfg: starterCase(), pool: starterPool()},
		&fakeAccounts{account: models.Account{PlayerID: 7, ClientSeed: "seed", Balance: 2000}},
		coord,
		&fixedDraws{draws: []float64{0.5, 0.5}},
		nil, nil,
	)

	_, balance, err := eng.OpenCase(context.Background(), 7, "starter")
	require.NoError(t, err)
	assert.Equal(t, int64(1600), balance)
	assert.Len(t, coord.calls, 2)
}

func TestOpenCaseSurfacesConflictAfterRetries(t *testing.T) {
	coord := &fakeCoordinator{
		results: []error{models.ErrConflict, models.ErrConflict, models.ErrConflict},
	}
	eng := engine.NewEngine(
		&fakeCatalog{cfg: starterCase(), pool: starterPool()},
		&fakeAccounts{account: models.Account{PlayerID: 7, ClientSeed: "seed", Balance: 2000}},
		coord,
		&fixedDraws{draws: []float64{0.5, 0.5}},
		nil, nil,
	)

	_, _, err := eng.OpenCase(context.Background(), 7, "starter")
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Len(t, coord.calls, engine.MaxRetries)
}

// After the final failed attempt the conflict is surfaced immediately;
// pausing there would buy nothing. The pauses in between carry jitter
// so racing writers do not retry in lockstep.
func TestOpenCasePausesBetweenAttemptsOnly(t *testing.T) {
	coord := &fakeCoordinator{
		results: []error{models.ErrConflict, models.ErrConflict, models.ErrConflict},
	}
	eng := engine.NewEngine(
		&fakeCatalog{cfg: starterCase(), pool: starterPool()},
		&fakeAccounts{account: models.Account{PlayerID: 7, ClientSeed: "seed", Balance: 2000}},
		coord,
		&fixedDraws{draws: []float64{0.5, 0.5}},
		nil, nil,
	)

	var pauses []time.Duration
	eng.SetRetrySleep(func(d time.Duration) { pauses = append(pauses, d) })

	_, _, err := eng.OpenCase(context.Background(), 7, "starter")
	assert.ErrorIs(t, err, models.ErrConflict)

	require.Len(t, pauses, engine.MaxRetries-1)
	for _, d := range pauses {
		assert.GreaterOrEqual(t, d, engine.RetryDelay)
		assert.Less(t, d, 2*engine.RetryDelay)
	}
}

func TestOpenCaseInsufficientFundsNotRetried(t *testing.T) {
	coord := &fakeCoordinator{
		results: []error{models.ErrInsufficientFunds},
	}
	eng := engine.NewEngine(
		&fakeCatalog{cfg: starterCase(), pool: starterPool()},
		&fakeAccounts{account: models.Account{PlayerID: 7, ClientSeed: "seed", Balance: 100}},
		coord,
		&fixedDraws{draws: []float64{0.5, 0.5}},
		nil, nil,
	)

	_, _, err := eng.OpenCase(context.Background(), 7, "starter")
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.Len(t, coord.calls, 1)
}
