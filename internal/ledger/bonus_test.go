package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casedrop-backend/internal/ledger"
	"casedrop-backend/internal/models"
)

func TestClaimCreditsOncePerDay(t *testing.T) {
	store := newMemStore(testAccount(2000))
	bonus := ledger.NewBonusLedger(store, 500, nil)

	balance, amount, err := bonus.Claim(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(500), amount)
	assert.Equal(t, int64(2500), balance)

	a := store.account(7)
	assert.Equal(t, int64(2500), a.Balance)
	assert.NotZero(t, a.LastBonusClaim)
	assert.Equal(t, 1, store.historyCount())

	// Same day, second claim: rejected without touching the balance.
	_, _, err = bonus.Claim(context.Background(), 7)
	assert.ErrorIs(t, err, models.ErrAlreadyClaimed)

	a = store.account(7)
	assert.Equal(t, int64(2500), a.Balance)
	assert.Equal(t, 1, store.historyCount())
}

func TestClaimConcurrentExactlyOneWins(t *testing.T) {
	store := newMemStore(testAccount(1000))
	bonus := ledger.NewBonusLedger(store, 500, nil)

	const claimers = 8
	var wg sync.WaitGroup
	errs := make([]error, claimers)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = bonus.Claim(context.Background(), 7)
		}(i)
	}
	wg.Wait()

	var won, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, models.ErrAlreadyClaimed):
			rejected++
		default:
			t.Errorf("unexpected claim error: %v", err)
		}
	}
	assert.Equal(t, 1, won, "the grant gate admits exactly one claim")
	assert.Equal(t, claimers-1, rejected)
	assert.Equal(t, int64(1500), store.account(7).Balance)
}

// A grant must never outlive a failed credit: the next claim attempt
// has to pass the gate again.
func TestClaimDeletesGrantWhenCreditFails(t *testing.T) {
	store := newMemStore(testAccount(1000))
	store.failCreditBonus = errStorageDown
	bonus := ledger.NewBonusLedger(store, 500, nil)

	_, _, err := bonus.Claim(context.Background(), 7)
	assert.ErrorIs(t, err, errStorageDown)

	a := store.account(7)
	assert.Equal(t, int64(1000), a.Balance)
	assert.Equal(t, 0, store.historyCount())

	// Storage recovers; the gate is open again.
	store.mu.Lock()
	store.failCreditBonus = nil
	store.mu.Unlock()

	balance, _, err := bonus.Claim(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), balance)
}

func TestClaimRollsBackCreditWhenHistoryFails(t *testing.T) {
	store := newMemStore(testAccount(1000))
	store.failAppendHistory = errStorageDown
	bonus := ledger.NewBonusLedger(store, 500, nil)

	_, _, err := bonus.Claim(context.Background(), 7)
	assert.ErrorIs(t, err, errStorageDown)

	a := store.account(7)
	assert.Equal(t, int64(1000), a.Balance, "credit compensated after history failure")
	assert.Equal(t, 0, store.historyCount())

	// The failed claim left no grant behind.
	store.mu.Lock()
	store.failAppendHistory = nil
	store.mu.Unlock()

	balance, _, err := bonus.Claim(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), balance)
}

func TestClaimRetriesVersionConflict(t *testing.T) {
	store := newMemStore(testAccount(1000))
	store.creditConflicts = 2
	bonus := ledger.NewBonusLedger(store, 500, nil)

	balance, _, err := bonus.Claim(context.Background(), 7)
	require.NoError(t, err, "two conflicts should still succeed within the retry limit")
	assert.Equal(t, int64(1500), balance)
	assert.Equal(t, 1, store.historyCount())
}

func TestClaimGivesUpAfterRepeatedConflicts(t *testing.T) {
	store := newMemStore(testAccount(1000))
	store.creditConflicts = 10
	bonus := ledger.NewBonusLedger(store, 500, nil)

	// No pause after the final attempt; the ones in between carry
	// jitter above the base delay.
	var pauses []time.Duration
	bonus.SetRetrySleep(func(d time.Duration) { pauses = append(pauses, d) })

	_, _, err := bonus.Claim(context.Background(), 7)
	assert.ErrorIs(t, err, models.ErrConflict)

	a := store.account(7)
	assert.Equal(t, int64(1000), a.Balance)
	assert.Equal(t, 0, store.historyCount())

	require.Len(t, pauses, 2)
	for _, d := range pauses {
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.Less(t, d, 20*time.Millisecond)
	}
}
