package fair

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// Generator derives verifiable draws from HMAC-SHA256(serverSeed,
// "clientSeed:nonce:round"). The server seed stays private until
// rotation; its hash is published up front so players can later check
// the seed was not switched after their bets.
type Generator struct {
	mu         sync.RWMutex
	serverSeed string
}

// NewGenerator creates a generator with the given server seed, or a
// fresh random one when seed is empty.
func NewGenerator(seed string) (*Generator, error) {
	if seed == "" {
		var err error
		seed, err = randomSeed()
		if err != nil {
			return nil, err
		}
	}
	return &Generator{serverSeed: seed}, nil
}

func randomSeed() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate server seed: %v", err)
	}
	return hex.EncodeToString(b), nil
}

// ServerSeedHash returns the SHA-256 commitment to the current seed.
func (g *Generator) ServerSeedHash() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return HashSeed(g.serverSeed)
}

// Draws returns count floats in [0,1) for (clientSeed, nonce) under the
// current server seed.
func (g *Generator) Draws(clientSeed string, nonce int64, count int) []float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Floats(g.serverSeed, clientSeed, nonce, count)
}

// Rotate installs a new random server seed and returns the previous
// seed so it can be disclosed for verification of past draws.
func (g *Generator) Rotate() (revealed string, newHash string, err error) {
	next, err := randomSeed()
	if err != nil {
		return "", "", err
	}

	g.mu.Lock()
	revealed = g.serverSeed
	g.serverSeed = next
	g.mu.Unlock()

	return revealed, HashSeed(next), nil
}

// HashSeed is the published commitment function for server seeds.
func HashSeed(seed string) string {
	h := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(h[:])
}

// byteStream walks the HMAC output of successive rounds, 32 bytes at a
// time, exactly as a verifying client would.
type byteStream struct {
	serverSeed string
	clientSeed string
	nonce      int64
	round      int64
	pos        int
	buf        [32]byte
}

func newByteStream(serverSeed, clientSeed string, nonce int64) *byteStream {
	s := &byteStream{serverSeed: serverSeed, clientSeed: clientSeed, nonce: nonce}
	s.fill()
	return s
}

func (s *byteStream) fill() {
	h := hmac.New(sha256.New, []byte(s.serverSeed))
	fmt.Fprintf(h, "%s:%d:%d", s.clientSeed, s.nonce, s.round)
	copy(s.buf[:], h.Sum(nil))
}

func (s *byteStream) next() byte {
	if s.pos >= len(s.buf) {
		s.round++
		s.pos = 0
		s.fill()
	}
	b := s.buf[s.pos]
	s.pos++
	return b
}

// nextFloat consumes 4 bytes: sum of b_i / 256^(i+1), giving a uniform
// value in [0, 1).
func (s *byteStream) nextFloat() float64 {
	var v float64
	div := 1.0
	for i := 0; i < 4; i++ {
		div *= 256
		v += float64(s.next()) / div
	}
	return v
}

// Floats derives count verifiable floats for (serverSeed, clientSeed,
// nonce). Deterministic: the same inputs always produce the same draws.
func Floats(serverSeed, clientSeed string, nonce int64, count int) []float64 {
	s := newByteStream(serverSeed, clientSeed, nonce)
	out := make([]float64, count)
	for i := range out {
		out[i] = s.nextFloat()
	}
	return out
}

// Verify recomputes draws from a disclosed server seed and checks the
// seed against its published hash. Returns the recomputed draws.
func Verify(serverSeed, expectedHash, clientSeed string, nonce int64, count int) ([]float64, error) {
	if HashSeed(serverSeed) != expectedHash {
		return nil, fmt.Errorf("server seed does not match published hash")
	}
	return Floats(serverSeed, clientSeed, nonce, count), nil
}
