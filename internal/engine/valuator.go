package engine

import "math"

// Value converts an item's base value and the applicable multiplier
// into the integral amount awarded.
//
// Rounding policy: floor. The same function must be used wherever
// expected value is audited; changing it changes the deployment's RTP.
func Value(baseValue int64, multiplier float64) int64 {
	if baseValue < 0 || multiplier < 0 {
		return 0
	}
	return int64(math.Floor(float64(baseValue) * multiplier))
}
