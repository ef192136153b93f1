// Package fair produces the random draws behind every case opening.
//
// Two sources exist: a plain CSPRNG for contexts that need no later
// verification, and a provably-fair generator that derives draws from a
// disclosed-hash server seed, a player-owned client seed and a
// monotonically increasing nonce, so a third party can recompute every
// draw once the server seed is revealed.
package fair

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// Source yields uniform floats in [0, 1).
type Source interface {
	Float64() float64
}

type cryptoSource struct{}

func (cryptoSource) Float64() float64 {
	var buf [8]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		return rand.Float64()
	}

	// Top 53 bits keep the value exactly representable.
	u := binary.BigEndian.Uint64(buf[:]) >> 11
	return float64(u) / (1 << 53)
}

// NewSource returns the default cryptographically secure source.
func NewSource() Source { return cryptoSource{} }
