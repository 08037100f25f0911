package engine

import (
	"math/rand/v2"
	"sync"
)

// Rand is the random source for reward rolls and prize draws.
//
// Float64 returns a value in [0, 1); a chance of p percent fires when
// Float64() < p/100. IntN returns a value in [0, n).
//
// Implementations must be safe for concurrent use: clicks on different
// modules run in parallel.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// lockedRand guards a PCG generator with a mutex.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a seeded, concurrency-safe Rand. The same seed always
// yields the same sequence, which the simulate command relies on.
func NewRand(seed uint64) Rand {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// SystemRand returns a Rand seeded from the runtime's entropy source.
func SystemRand() Rand {
	return &lockedRand{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
