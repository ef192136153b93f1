package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"casedrop-backend/internal/fair"
	"casedrop-backend/internal/models"
)

const (
	bonusMaxRetries = 3
	bonusRetryDelay = 10 * time.Millisecond
)

// BonusStore extends the coordinator's storage contract with the
// uniqueness gate used for once-per-day grants.
type BonusStore interface {
	GetAccount(ctx context.Context, playerID int64) (*models.Account, error)
	// CreateBonusGrant creates the (player, day) grant record; created
	// is false when the key already exists. The store-level uniqueness
	// constraint is the concurrency primitive, not a read-then-write.
	CreateBonusGrant(ctx context.Context, grant *models.BonusGrant) (created bool, err error)
	DeleteBonusGrant(ctx context.Context, playerID int64, day string) error
	// CreditBonus adds amount to the balance and stamps the claim time,
	// conditional on the version. Returns the new balance.
	CreditBonus(ctx context.Context, playerID, amount, claimedAt, expectedVersion int64) (int64, error)
	AppendHistory(ctx context.Context, rec *models.HistoryRecord) error
}

// BonusLedger grants a fixed daily credit at most once per player per
// UTC calendar day. Unclaimed -> Claimed is the only transition; the
// compensation path is an exceptional rollback, not an unclaim.
type BonusLedger struct {
	store  BonusStore
	amount int64
	log    *slog.Logger
	now    func() time.Time
	jitter fair.Source
	sleep  func(time.Duration)
}

func NewBonusLedger(store BonusStore, amount int64, log *slog.Logger) *BonusLedger {
	if log == nil {
		log = slog.Default()
	}
	return &BonusLedger{
		store:  store,
		amount: amount,
		log:    log,
		now:    time.Now,
		jitter: fair.NewSource(),
		sleep:  time.Sleep,
	}
}

// retryDelay adds random jitter so racing writers on one account do not
// retry in lockstep.
func (b *BonusLedger) retryDelay() time.Duration {
	return bonusRetryDelay + time.Duration(b.jitter.Float64()*float64(bonusRetryDelay))
}

// Claim credits today's bonus. Returns models.ErrAlreadyClaimed when
// the grant for today already exists; in that case the balance is never
// touched. If the credit fails after the grant was created, the grant
// is deleted again so it never exists without its credit.
func (b *BonusLedger) Claim(ctx context.Context, playerID int64) (newBalance, bonusAmount int64, err error) {
	now := b.now()
	day := models.BonusDay(now)

	grant := &models.BonusGrant{
		PlayerID:  playerID,
		Day:       day,
		Amount:    b.amount,
		CreatedAt: now.Unix(),
	}

	created, err := b.store.CreateBonusGrant(ctx, grant)
	if err != nil {
		return 0, 0, err
	}
	if !created {
		return 0, 0, models.ErrAlreadyClaimed
	}

	newBalance, err = b.credit(ctx, playerID, day, now)
	if err != nil {
		// The grant must not outlive a failed credit.
		rctx := context.WithoutCancel(ctx)
		if derr := b.store.DeleteBonusGrant(rctx, playerID, day); derr != nil {
			b.log.Error("failed to delete bonus grant after credit failure",
				"player_id", playerID, "day", day, "error", derr)
		}
		return 0, 0, err
	}

	return newBalance, b.amount, nil
}

func (b *BonusLedger) credit(ctx context.Context, playerID int64, day string, now time.Time) (int64, error) {
	var lastErr error
	for attempt := 0; attempt < bonusMaxRetries; attempt++ {
		account, err := b.store.GetAccount(ctx, playerID)
		if err != nil {
			return 0, err
		}

		var balance int64
		saga := &Saga{
			Log: b.log,
			Steps: []Step{
				{
					Name: "credit bonus",
					Forward: func(ctx context.Context) error {
						v, err := b.store.CreditBonus(ctx, playerID, b.amount, now.Unix(), account.Version)
						if err != nil {
							return err
						}
						balance = v
						return nil
					},
					Compensate: func(ctx context.Context) error {
						_, err := b.store.CreditBonus(ctx, playerID, -b.amount, account.LastBonusClaim, NoVersionCheck)
						return err
					},
				},
				{
					Name: "append history",
					Forward: func(ctx context.Context) error {
						return b.store.AppendHistory(ctx, &models.HistoryRecord{
							ID:        models.GenerateRecordID(),
							PlayerID:  playerID,
							Type:      models.EventDailyBonus,
							Amount:    b.amount,
							Bonus:     &models.BonusMeta{Day: day},
							CreatedAt: now.Unix(),
						})
					},
				},
			},
		}

		err = saga.Run(ctx)
		if err == nil {
			return balance, nil
		}
		if !errors.Is(err, models.ErrConflict) {
			return 0, err
		}
		lastErr = err
		if attempt == bonusMaxRetries-1 {
			break
		}
		b.sleep(b.retryDelay())
	}
	return 0, lastErr
}
