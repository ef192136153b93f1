// Package ledger holds the two writers of player accounts: the
// transaction coordinator that settles wagers and the bonus ledger for
// once-per-day grants. The underlying store offers only single-record
// atomicity, so multi-record operations run as compensating sagas.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
)

// Step is one reversible unit of a saga. Compensate may be nil when the
// step leaves nothing to undo.
type Step struct {
	Name       string
	Forward    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga executes steps in order; on any failure it runs the
// compensations of the already-committed steps in reverse order and
// returns the original error. Compensation is best-effort: a failed
// rollback is logged, never returned, so it cannot mask the cause.
//
// Compensations run on a context detached from the caller's
// cancellation. A caller timing out mid-operation must still leave the
// store consistent; abandoning rollback is not an option here.
type Saga struct {
	Log   *slog.Logger
	Steps []Step
}

func (s *Saga) Run(ctx context.Context) error {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}

	for i, st := range s.Steps {
		if err := st.Forward(ctx); err != nil {
			s.rollback(ctx, i, log)
			return fmt.Errorf("%s: %w", st.Name, err)
		}
	}
	return nil
}

func (s *Saga) rollback(ctx context.Context, failedAt int, log *slog.Logger) {
	rctx := context.WithoutCancel(ctx)
	for i := failedAt - 1; i >= 0; i-- {
		st := s.Steps[i]
		if st.Compensate == nil {
			continue
		}
		if err := st.Compensate(rctx); err != nil {
			log.Error("compensation failed", "step", st.Name, "error", err)
		}
	}
}
