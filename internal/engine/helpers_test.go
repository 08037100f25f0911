package engine

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/gridyield/internal/catalog"
	"github.com/roach88/gridyield/internal/ir"
	"github.com/roach88/gridyield/internal/store"
	"github.com/roach88/gridyield/internal/testutil"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

const testCatalog = `
module: {
	stand: {
		editor: "GENERIC"
		yield: {item: "lemon", per_day: 2, max: 10}
		setup: [{item: "sugar", qty: 2}, {item: "cup", qty: 1}]
		execution_cost: [{item: "ticket", qty: 1}]
		guest_yield: [{item: "coin", qty: 3, probability: 50}]
		owner_yield: [{item: "coin", qty: 1, probability: 100}]
		friend_message: [{template: "stand_visit", probability: 25}]
	}
	pinwheel: {
		yield: {item: "breeze", clicks_per_yield: 3, max: 5}
		guest_yield: [
			{item: "petal", qty: 1, probability: 100},
			{item: "seed", qty: 1, probability: 10},
		]
	}
	post: {
		editor: "TRADE"
		trade: {item: "brick", qty: 4}
		yield: {item: "gold", per_day: 1, max: 1}
	}
	shop: editor: "STICKER_SHOPPE"
	arcade: {
		editor: "HOP_ARCADE"
		arcade_prize: [
			{item: "ticket", qty: 1, success_rate: 30},
			{item: "plush", qty: 2, success_rate: 70},
		]
	}
	short: {
		editor: "HOP_ARCADE"
		arcade_prize: [
			{item: "ticket", qty: 1, success_rate: 30},
			{item: "plush", qty: 1, success_rate: 50},
		]
	}
	sundial: yield: {item: "tick", max: 100}
	drill: yield: {item: "ore", per_day: 24, max: 5}
	rock: name: "Decorative Rock"
}
`

func loadTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.LoadString(testCatalog)
	require.NoError(t, err)
	return cat
}

// recordingJournal captures journaled interactions.
type recordingJournal struct {
	mu      sync.Mutex
	entries []ir.Interaction
}

func (j *recordingJournal) Record(in ir.Interaction) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, in)
	return nil
}

func (j *recordingJournal) kinds() []ir.InteractionKind {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]ir.InteractionKind, len(j.entries))
	for i, e := range j.entries {
		out[i] = e.Kind
	}
	return out
}

type fixture struct {
	t       *testing.T
	ctx     context.Context
	engine  *Engine
	store   *store.Store
	clock   *testutil.ManualClock
	journal *recordingJournal
}

// newFixture builds an engine over a temp-dir store with a manual clock at
// epoch, sequential ids and the given random source.
func newFixture(t *testing.T, r Rand, opts ...Option) *fixture {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := testutil.NewManualClock(epoch)
	journal := &recordingJournal{}
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(clock),
		WithRand(r),
		WithModuleIDs(NewSequenceGenerator("m")),
		WithTokens(NewSequenceGenerator("tok")),
		WithJournal(journal),
		WithDailyVotes(5),
	}
	e := New(s, loadTestCatalog(t), append(base, opts...)...)
	return &fixture{t: t, ctx: context.Background(), engine: e, store: s, clock: clock, journal: journal}
}

func (f *fixture) user(id string, networker bool) {
	f.t.Helper()
	_, err := f.engine.AddUser(f.ctx, id, networker)
	require.NoError(f.t, err)
}

func (f *fixture) give(user, item string, qty int64) {
	f.t.Helper()
	require.NoError(f.t, f.engine.Give(f.ctx, user, ir.ItemQty{Item: item, Qty: qty}))
}

func (f *fixture) place(owner, item string) ir.Module {
	f.t.Helper()
	f.give(owner, item, 1)
	m, err := f.engine.Place(f.ctx, owner, item, nil)
	require.NoError(f.t, err)
	return m
}

func (f *fixture) qty(user, item string) int64 {
	f.t.Helper()
	inv, err := f.store.Inventory(f.ctx, user)
	require.NoError(f.t, err)
	for _, iq := range inv {
		if iq.Item == item {
			return iq.Qty
		}
	}
	return 0
}

func (f *fixture) votes(user string) int64 {
	f.t.Helper()
	p, err := f.store.Profile(f.ctx, user)
	require.NoError(f.t, err)
	return p.AvailableVotes
}

func (f *fixture) module(id string) ir.Module {
	f.t.Helper()
	m, err := f.engine.Module(f.ctx, id)
	require.NoError(f.t, err)
	return m
}

func (f *fixture) befriend(a, b string) {
	f.t.Helper()
	require.NoError(f.t, f.engine.Befriend(f.ctx, a, b, ir.FriendshipFriend))
}

// setUpStand places a stand for owner and pays its setup.
func (f *fixture) setUpStand(owner string) ir.Module {
	f.t.Helper()
	m := f.place(owner, "stand")
	f.give(owner, "sugar", 2)
	f.give(owner, "cup", 1)
	m, err := f.engine.Setup(f.ctx, m.ID)
	require.NoError(f.t, err)
	return m
}
