// Package engine runs the provably-fair selection pipeline for case
// openings: tier resolution, item selection, valuation, then the
// atomic balance mutation via the transaction coordinator.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"casedrop-backend/internal/fair"
	"casedrop-backend/internal/models"
)

const (
	// MaxRetries bounds re-runs of the whole pipeline after a version
	// conflict. Each re-run draws with the fresh nonce, so the recorded
	// draw inputs always match what actually selected the item.
	MaxRetries = 3
	RetryDelay = 10 * time.Millisecond
)

// Catalog is read-only case/item access. Implementations may cache
// aggressively; staleness only affects which configuration a new wager
// uses, never in-flight consistency.
type Catalog interface {
	Case(ctx context.Context, id string) (*models.CaseConfig, error)
	Pool(ctx context.Context, caseID string) ([]models.PoolEntry, error)
}

// AccountSource is the point read used to pick up the player's
// provably-fair seeds before drawing.
type AccountSource interface {
	GetAccount(ctx context.Context, playerID int64) (*models.Account, error)
}

// Coordinator commits the stake debit, reward credit, statistics and
// history as one logically atomic unit.
type Coordinator interface {
	Execute(ctx context.Context, playerID, stake, awarded int64, eventType models.EventType, rec *models.HistoryRecord) (int64, error)
}

// DrawSource produces the verifiable draws for one opening.
type DrawSource interface {
	Draws(clientSeed string, nonce int64, count int) []float64
	ServerSeedHash() string
}

// Broadcaster pushes committed openings to the live drop feed. Nil
// disables broadcasting.
type Broadcaster interface {
	BroadcastOpening(playerID int64, result *models.OpeningResult)
	BroadcastBalance(playerID int64, balance int64)
}

type Engine struct {
	catalog  Catalog
	accounts AccountSource
	coord    Coordinator
	draws    DrawSource
	feed     Broadcaster
	log      *slog.Logger

	jitter fair.Source
	sleep  func(time.Duration)
}

func NewEngine(catalog Catalog, accounts AccountSource, coord Coordinator, draws DrawSource, feed Broadcaster, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		catalog:  catalog,
		accounts: accounts,
		coord:    coord,
		draws:    draws,
		feed:     feed,
		log:      log,
		jitter:   fair.NewSource(),
		sleep:    time.Sleep,
	}
}

// retryDelay adds random jitter to the base delay so two writers racing
// on one account do not retry in lockstep and collide again.
func (e *Engine) retryDelay() time.Duration {
	return RetryDelay + time.Duration(e.jitter.Float64()*float64(RetryDelay))
}

// OpenCase performs one paid opening: resolves a tier and an item from
// two verifiable draws, values the reward, and settles stake and payout
// through the coordinator. On a version conflict the whole pipeline is
// re-run with the account's fresh nonce, up to MaxRetries times.
func (e *Engine) OpenCase(ctx context.Context, playerID int64, caseID string) (*models.OpeningResult, int64, error) {
	cfg, err := e.catalog.Case(ctx, caseID)
	if err != nil {
		return nil, 0, err
	}
	if !cfg.Active {
		return nil, 0, models.ErrCaseInactive
	}
	if err := cfg.Validate(); err != nil {
		e.log.Error("rejecting opening against invalid case config", "case_id", caseID, "error", err)
		return nil, 0, err
	}

	pool, err := e.catalog.Pool(ctx, caseID)
	if err != nil {
		return nil, 0, err
	}

	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		result, balance, err := e.openOnce(ctx, playerID, cfg, pool)
		if err == nil {
			if e.feed != nil {
				e.feed.BroadcastOpening(playerID, result)
				e.feed.BroadcastBalance(playerID, balance)
			}
			return result, balance, nil
		}
		if !errors.Is(err, models.ErrConflict) {
			return nil, 0, err
		}
		lastErr = err
		if attempt == MaxRetries-1 {
			break
		}
		e.log.Debug("opening hit version conflict, retrying", "player_id", playerID, "attempt", attempt+1)
		e.sleep(e.retryDelay())
	}
	return nil, 0, lastErr
}

func (e *Engine) openOnce(ctx context.Context, playerID int64, cfg *models.CaseConfig, pool []models.PoolEntry) (*models.OpeningResult, int64, error) {
	account, err := e.accounts.GetAccount(ctx, playerID)
	if err != nil {
		return nil, 0, err
	}

	draws := e.draws.Draws(account.ClientSeed, account.Nonce, 2)

	tier, err := ResolveTier(cfg.TierTable, draws[0])
	if err != nil {
		return nil, 0, err
	}

	entry, err := SelectItem(pool, tier, draws[1], e.log)
	if err != nil {
		return nil, 0, err
	}

	awarded := Value(entry.Item.BaseValue, entry.Multiplier)

	result := &models.OpeningResult{
		OpeningID:      models.GenerateOpeningID(),
		CaseID:         cfg.ID,
		Item:           entry.Item,
		Amount:         awarded,
		TierDraw:       draws[0],
		ItemDraw:       draws[1],
		ClientSeed:     account.ClientSeed,
		ServerSeedHash: e.draws.ServerSeedHash(),
		Nonce:          account.Nonce,
		CreatedAt:      time.Now().Unix(),
	}

	record := &models.HistoryRecord{
		ID:       models.GenerateRecordID(),
		PlayerID: playerID,
		Type:     models.EventCaseOpen,
		Stake:    cfg.Price,
		Amount:   awarded,
		CaseOpen: &models.CaseOpenMeta{
			OpeningID:      result.OpeningID,
			CaseID:         cfg.ID,
			ItemID:         entry.Item.ID,
			ItemName:       entry.Item.Name,
			Tier:           entry.Item.Tier,
			TierDraw:       draws[0],
			ItemDraw:       draws[1],
			ClientSeed:     account.ClientSeed,
			ServerSeedHash: result.ServerSeedHash,
			Nonce:          account.Nonce,
		},
		CreatedAt: result.CreatedAt,
	}

	balance, err := e.coord.Execute(ctx, playerID, cfg.Price, awarded, models.EventCaseOpen, record)
	if err != nil {
		return nil, 0, err
	}
	return result, balance, nil
}
