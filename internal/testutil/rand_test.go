package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScriptedRand_ServesInOrder(t *testing.T) {
	r := NewScriptedRand([]float64{0.1, 0.9}, []int{3, 0})

	assert.Equal(t, 0.1, r.Float64())
	assert.Equal(t, 3, r.IntN(5))
	assert.Equal(t, 0.9, r.Float64())
	assert.Equal(t, 0, r.IntN(1))

	floats, ints := r.Remaining()
	assert.Zero(t, floats)
	assert.Zero(t, ints)
}

func TestScriptedRand_PanicsWhenExhausted(t *testing.T) {
	r := NewScriptedRand(nil, nil)
	assert.Panics(t, func() { r.Float64() })
	assert.Panics(t, func() { r.IntN(10) })
}

func TestScriptedRand_Fallback(t *testing.T) {
	r := NewScriptedRand([]float64{0.2}, nil).WithFallback(0.99, 1)

	assert.Equal(t, 0.2, r.Float64())
	assert.Equal(t, 0.99, r.Float64())
	assert.Equal(t, 0.99, r.Float64())
	assert.Equal(t, 1, r.IntN(4))
}

func TestScriptedRand_RejectsOutOfRangeInt(t *testing.T) {
	r := NewScriptedRand(nil, []int{7})
	assert.Panics(t, func() { r.IntN(5) })
}

func TestScriptedRand_DoesNotAliasInput(t *testing.T) {
	floats := []float64{0.5}
	r := NewScriptedRand(floats, nil)
	floats[0] = 0.7
	assert.Equal(t, 0.5, r.Float64())
}
