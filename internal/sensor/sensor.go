// Placeholder humidity source; the node does not sample real hardware.
package sensor

import (
	"math/rand/v2"
	"sync"
)

// MaxHumidity is the top of the advertised [0,100]% range.
const MaxHumidity = 100

// Source produces a humidity reading on demand without blocking.
type Source interface {
	Sample() uint8
}

type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a pseudo-random source; a fixed seed makes it reproducible.
func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *Random) Sample() uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint8(r.rng.IntN(MaxHumidity + 1))
}

// Fixed always returns the same value.
type Fixed uint8

func (f Fixed) Sample() uint8 { return uint8(f) }
