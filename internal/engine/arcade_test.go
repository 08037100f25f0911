package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gridyield/internal/catalog"
	"github.com/roach88/gridyield/internal/testutil"
)

func TestPickPrize_CumulativeWeights(t *testing.T) {
	prizes := []catalog.ArcadePrize{
		{Item: "ticket", Qty: 1, SuccessRate: 30},
		{Item: "plush", Qty: 2, SuccessRate: 70},
	}

	tests := []struct {
		draw int
		want string
	}{
		{0, "ticket"},
		{29, "ticket"},
		{30, "plush"},
		{99, "plush"},
	}
	for _, tt := range tests {
		p, ok := pickPrize(prizes, tt.draw)
		require.True(t, ok, "draw %d", tt.draw)
		assert.Equal(t, tt.want, p.Item, "draw %d", tt.draw)
	}
}

func TestPickPrize_ShortTable(t *testing.T) {
	prizes := []catalog.ArcadePrize{
		{Item: "ticket", Qty: 1, SuccessRate: 30},
		{Item: "plush", Qty: 1, SuccessRate: 50},
	}
	_, ok := pickPrize(prizes, 79)
	assert.True(t, ok)
	_, ok = pickPrize(prizes, 80)
	assert.False(t, ok)
	_, ok = pickPrize(nil, 0)
	assert.False(t, ok)
}

func TestSelectPrize(t *testing.T) {
	f := newFixture(t, testutil.NewScriptedRand(nil, []int{29, 30, 99}))
	f.user("alice", false)
	f.user("bob", false)
	m := f.place("alice", "arcade")

	res, err := f.engine.SelectPrize(f.ctx, m.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, 29, res.Draw)
	assert.Equal(t, Reward{Recipient: "bob", Item: "ticket", Qty: 1, Source: SourcePrize}, res.Prize)

	res, err = f.engine.SelectPrize(f.ctx, m.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "plush", res.Prize.Item)

	_, err = f.engine.SelectPrize(f.ctx, m.ID, "bob")
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.qty("bob", "ticket"))
	assert.Equal(t, int64(4), f.qty("bob", "plush"))
	assert.Equal(t, int64(5), f.votes("bob"), "arcade play does not spend votes")
}

func TestSelectPrize_Misconfigured(t *testing.T) {
	f := newFixture(t, testutil.NewScriptedRand(nil, []int{85}))
	f.user("alice", false)
	f.user("bob", false)
	m := f.place("alice", "short")

	_, err := f.engine.SelectPrize(f.ctx, m.ID, "bob")
	assert.ErrorIs(t, err, ErrPrizeTableMisconfigured)
	assert.Zero(t, f.qty("bob", "ticket"))
	assert.Zero(t, f.qty("bob", "plush"))
}

func TestSelectPrize_NoTable(t *testing.T) {
	f := newFixture(t, testutil.NewScriptedRand(nil, []int{0}))
	f.user("alice", false)
	m := f.place("alice", "pinwheel")

	_, err := f.engine.SelectPrize(f.ctx, m.ID, "alice")
	assert.ErrorIs(t, err, ErrPrizeTableMisconfigured)
}
