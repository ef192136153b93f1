package fair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatsDeterministic(t *testing.T) {
	a := Floats("server-seed", "client-seed", 12, 4)
	b := Floats("server-seed", "client-seed", 12, 4)
	assert.Equal(t, a, b, "same inputs must reproduce the same draws")

	// Any change to the tuple changes the stream.
	assert.NotEqual(t, a, Floats("other-seed", "client-seed", 12, 4))
	assert.NotEqual(t, a, Floats("server-seed", "other-client", 12, 4))
	assert.NotEqual(t, a, Floats("server-seed", "client-seed", 13, 4))
}

func TestFloatsRange(t *testing.T) {
	// More draws than one HMAC block holds, so the round rollover runs.
	draws := Floats("server-seed", "client-seed", 1, 64)
	require.Len(t, draws, 64)
	for i, d := range draws {
		assert.GreaterOrEqual(t, d, 0.0, "draw %d", i)
		assert.Less(t, d, 1.0, "draw %d", i)
	}
}

func TestFloatsPrefixStable(t *testing.T) {
	// Asking for more draws must not change the earlier ones.
	short := Floats("server-seed", "client-seed", 5, 2)
	long := Floats("server-seed", "client-seed", 5, 10)
	assert.Equal(t, short, long[:2])
}

func TestGeneratorCommitment(t *testing.T) {
	g, err := NewGenerator("known-seed")
	require.NoError(t, err)

	assert.Equal(t, HashSeed("known-seed"), g.ServerSeedHash())
	assert.Equal(t, Floats("known-seed", "c", 1, 2), g.Draws("c", 1, 2))
}

func TestGeneratorRandomSeed(t *testing.T) {
	g1, err := NewGenerator("")
	require.NoError(t, err)
	g2, err := NewGenerator("")
	require.NoError(t, err)

	assert.NotEqual(t, g1.ServerSeedHash(), g2.ServerSeedHash())
}

func TestRotateRevealsOldSeed(t *testing.T) {
	g, err := NewGenerator("first-seed")
	require.NoError(t, err)

	oldHash := g.ServerSeedHash()
	oldDraws := g.Draws("c", 7, 2)

	revealed, newHash, err := g.Rotate()
	require.NoError(t, err)

	assert.Equal(t, "first-seed", revealed)
	assert.Equal(t, HashSeed(revealed), oldHash, "revealed seed must satisfy the prior commitment")
	assert.Equal(t, newHash, g.ServerSeedHash())
	assert.NotEqual(t, oldHash, newHash)

	// Past draws stay verifiable from the revealed seed.
	verified, err := Verify(revealed, oldHash, "c", 7, 2)
	require.NoError(t, err)
	assert.Equal(t, oldDraws, verified)
}

func TestVerifyRejectsWrongSeed(t *testing.T) {
	_, err := Verify("not-the-seed", HashSeed("the-seed"), "c", 1, 1)
	assert.Error(t, err)
}
