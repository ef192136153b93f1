package ledger

import (
	"context"
	"log/slog"

	"casedrop-backend/internal/models"
)

// NoVersionCheck skips the optimistic version check on a conditional
// write. Reserved for compensations, which must land even if a
// concurrent writer moved the version.
const NoVersionCheck int64 = -1

// Store is the single-record storage contract the coordinator runs on.
// Conditional writes return models.ErrConflict when the expected
// version no longer matches.
type Store interface {
	GetAccount(ctx context.Context, playerID int64) (*models.Account, error)
	// SetBalance writes the balance and returns the account's new version.
	SetBalance(ctx context.Context, playerID, balance, expectedVersion int64) (int64, error)
	// AddStats applies a lifetime-statistics delta and returns the new version.
	AddStats(ctx context.Context, playerID int64, d models.StatsDelta, expectedVersion int64) (int64, error)
	AppendHistory(ctx context.Context, rec *models.HistoryRecord) error
	DeleteHistory(ctx context.Context, playerID int64, recordID string) error
}

// Coordinator settles one wager: debit the stake, credit the award,
// bump lifetime statistics and append the history record, with
// compensating rollback on partial failure. It performs a single
// attempt per call; callers own the bounded retry after ErrConflict,
// since a retried opening must re-draw with the fresh nonce.
type Coordinator struct {
	store Store
	log   *slog.Logger
}

func NewCoordinator(store Store, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{store: store, log: log}
}

// Execute runs the debit/credit cycle and returns the new balance.
//
// Preconditions (stake > 0, awarded >= 0) are caller errors rejected
// before any read. An insufficient balance is rejected before any
// write. After that point every committed step has a compensation.
func (c *Coordinator) Execute(ctx context.Context, playerID, stake, awarded int64, eventType models.EventType, rec *models.HistoryRecord) (int64, error) {
	if stake <= 0 {
		return 0, models.ErrInvalidStake
	}
	if awarded < 0 {
		return 0, models.ErrInvalidAward
	}

	account, err := c.store.GetAccount(ctx, playerID)
	if err != nil {
		return 0, err
	}
	if account.Balance < stake {
		return 0, models.ErrInsufficientFunds
	}

	newBalance := account.Balance - stake + awarded

	delta := models.StatsDelta{
		Wagered:     stake,
		Won:         awarded,
		GamesPlayed: 1,
	}
	if eventType == models.EventCaseOpen {
		// One opening consumes one provably-fair nonce; it advances in
		// the same committed cycle as the balance.
		delta.Nonce = 1
	}

	var versionAfterBalance int64

	saga := &Saga{
		Log: c.log,
		Steps: []Step{
			{
				Name: "write balance",
				Forward: func(ctx context.Context) error {
					v, err := c.store.SetBalance(ctx, playerID, newBalance, account.Version)
					if err != nil {
						return err
					}
					versionAfterBalance = v
					return nil
				},
				Compensate: func(ctx context.Context) error {
					_, err := c.store.SetBalance(ctx, playerID, account.Balance, NoVersionCheck)
					return err
				},
			},
			{
				Name: "increment statistics",
				Forward: func(ctx context.Context) error {
					_, err := c.store.AddStats(ctx, playerID, delta, versionAfterBalance)
					return err
				},
				Compensate: func(ctx context.Context) error {
					_, err := c.store.AddStats(ctx, playerID, delta.Negate(), NoVersionCheck)
					return err
				},
			},
			{
				Name: "append history",
				Forward: func(ctx context.Context) error {
					return c.store.AppendHistory(ctx, rec)
				},
			},
		},
	}

	if err := saga.Run(ctx); err != nil {
		return 0, err
	}
	return newBalance, nil
}
