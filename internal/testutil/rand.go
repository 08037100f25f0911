package testutil

import (
	"fmt"
	"sync"
)

// ScriptedRand replays predetermined random values.
//
// Implements engine.Rand. Float64 and IntN draw from separate queues. When a
// queue runs dry the fallback is used if one was set; otherwise ScriptedRand
// panics so a test that rolls more often than it planned fails loudly.
//
// Thread-safety: ScriptedRand is safe for concurrent use via internal mutex.
type ScriptedRand struct {
	mu     sync.Mutex
	floats []float64
	ints   []int

	hasFallback   bool
	fallbackFloat float64
	fallbackInt   int

	floatCalls int
	intCalls   int
}

// NewScriptedRand creates a ScriptedRand serving floats and ints in order.
func NewScriptedRand(floats []float64, ints []int) *ScriptedRand {
	return &ScriptedRand{
		floats: append([]float64(nil), floats...),
		ints:   append([]int(nil), ints...),
	}
}

// WithFallback sets the values served once the scripted queues are empty.
func (r *ScriptedRand) WithFallback(f float64, i int) *ScriptedRand {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hasFallback = true
	r.fallbackFloat = f
	r.fallbackInt = i
	return r
}

// Float64 returns the next scripted float.
func (r *ScriptedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.floatCalls++
	if len(r.floats) == 0 {
		if !r.hasFallback {
			panic(fmt.Sprintf("ScriptedRand: float queue exhausted on call %d", r.floatCalls))
		}
		return r.fallbackFloat
	}
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f
}

// IntN returns the next scripted int. The value must lie in [0, n).
func (r *ScriptedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intCalls++
	var v int
	switch {
	case len(r.ints) > 0:
		v = r.ints[0]
		r.ints = r.ints[1:]
	case r.hasFallback:
		v = r.fallbackInt
	default:
		panic(fmt.Sprintf("ScriptedRand: int queue exhausted on call %d", r.intCalls))
	}
	if v < 0 || v >= n {
		panic(fmt.Sprintf("ScriptedRand: scripted int %d outside [0, %d)", v, n))
	}
	return v
}

// Remaining reports how many scripted values have not been consumed.
func (r *ScriptedRand) Remaining() (floats, ints int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.floats), len(r.ints)
}
