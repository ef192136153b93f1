package engine

import "time"

// SetRetrySleep substitutes the pause between retry attempts.
func (e *Engine) SetRetrySleep(fn func(time.Duration)) { e.sleep = fn }
