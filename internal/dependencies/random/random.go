package random

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// Random is the source of chance in the game: dice, color draws, bid
// tie-breaks, AI picks and identifiers. Tests swap in a scripted mock.
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int

	// Coin returns true or false with equal odds
	Coin() bool

	// UUID returns a new random identifier
	UUID() string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Intn returns a cryptographically random int in [0, n), or 0 when n <= 0
func (r *CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	result, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(result.Int64())
}

// Coin flips a fair coin
func (r *CryptoRandom) Coin() bool {
	return r.Intn(2) == 1
}

// UUID returns a random version 4 UUID
func (r *CryptoRandom) UUID() string {
	return uuid.NewString()
}
