package ledger

import "time"

// SetRetrySleep substitutes the pause between retry attempts.
func (b *BonusLedger) SetRetrySleep(fn func(time.Duration)) { b.sleep = fn }
