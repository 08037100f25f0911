package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gridyield/internal/ir"
)

const standCatalog = `
module: {
	stand: {
		yield: {item: "lemon", per_day: 2, max: 10}
		setup: [{item: "sugar", qty: 1}]
		guest_yield: [{item: "coin", qty: 1, probability: 50}]
	}
	rock: {}
}
`

func parse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	return s
}

func TestRun_TestdataScenariosPass(t *testing.T) {
	scenarios, err := LoadDir(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
			assert.Len(t, result.Trace, len(s.Steps))
		})
	}
}

func TestRun_PlaceAndAlias(t *testing.T) {
	s := &Scenario{
		Name:        "alias",
		Description: "aliases resolve to module ids",
		Catalog:     standCatalog,
		Users:       []UserDef{{ID: "alice"}},
		Inventory:   map[string]map[string]int64{"alice": {"stand": 2, "sugar": 1}},
		Steps: []Step{
			{Op: OpPlace, User: "alice", Item: "stand", As: "first"},
			{Op: OpPlace, User: "alice", Item: "stand", Pos: &ir.GridPos{X: 2, Y: 3}, As: "second"},
			{Op: OpSetup, Module: "second"},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)

	require.Len(t, result.Trace, 3)
	assert.Equal(t, ir.String("m-1"), result.Trace[0].Result["id"])
	assert.Equal(t, ir.String("m-2"), result.Trace[1].Result["id"])
	assert.Equal(t, ir.String("m-2"), result.Trace[2].Args["module"])
	assert.Equal(t, ir.String("set_up"), result.Trace[2].Result["state"])
}

func TestRun_ExpectedErrorRecorded(t *testing.T) {
	s := parse(t, `
name: expected_error
description: an expected engine error passes
catalog: "module: rock: {}"
users: [{id: alice}]
steps:
  - op: place
    user: alice
    item: rock
    expect: {error: INSUFFICIENT_INVENTORY}
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, "INSUFFICIENT_INVENTORY", result.Trace[0].Outcome)
	assert.Nil(t, result.Trace[0].Result)
}

func TestRun_ExpectationFailures(t *testing.T) {
	s := parse(t, `
name: failing
description: every kind of step expectation failure
catalog: "module: rock: {}"
users: [{id: alice}, {id: bob}]
inventory:
  alice: {rock: 2}
steps:
  - op: place
    user: alice
    item: rock
    as: r
    expect: {error: CELL_OCCUPIED}
  - op: click
    module: r
    user: alice
    expect: {error: NOT_CLICKABLE}
  - {op: click, module: r, user: alice}
  - op: click
    module: r
    user: bob
    expect:
      result: {module: {total_clicks: 5}}
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "expected error CELL_OCCUPIED, got success")
	assert.Contains(t, result.Errors[1], "expected error NOT_CLICKABLE, got SELF_INTERACTION")
	assert.Contains(t, result.Errors[2], "unexpected error")
	assert.Contains(t, result.Errors[3], `field "module"`)
}

func TestRun_ExhaustedRandIsStepError(t *testing.T) {
	s := &Scenario{
		Name:        "exhausted",
		Description: "a click with no scripted floats fails the step",
		Catalog:     standCatalog,
		Users:       []UserDef{{ID: "alice"}, {ID: "bob"}},
		Inventory:   map[string]map[string]int64{"alice": {"stand": 1, "sugar": 1}},
		Steps: []Step{
			{Op: OpPlace, User: "alice", Item: "stand", As: "s"},
			{Op: OpSetup, Module: "s"},
			{Op: OpClick, Module: "s", User: "bob"},
		},
		Assertions: []Assertion{
			{Type: AssertVotes, User: "bob", Qty: ptr(int64(10))},
			{Type: AssertModule, Module: "s", Expect: map[string]interface{}{"state": "set_up", "total_clicks": 0}},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, OutcomeError, result.Trace[2].Outcome)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[2] click")
}

func TestRun_FallbackRand(t *testing.T) {
	s := &Scenario{
		Name:        "fallback",
		Description: "fallback values serve every draw",
		Catalog:     standCatalog,
		Rand:        RandScript{Fallback: &Fallback{Float: 0.1}},
		Users:       []UserDef{{ID: "alice"}, {ID: "bob"}},
		Inventory:   map[string]map[string]int64{"alice": {"stand": 1, "sugar": 1}},
		Steps: []Step{
			{Op: OpPlace, User: "alice", Item: "stand", As: "s"},
			{Op: OpSetup, Module: "s"},
			{Op: OpClick, Module: "s", User: "bob"},
		},
		Assertions: []Assertion{
			{Type: AssertInventory, User: "bob", Item: "coin", Qty: ptr(int64(1))},
			{Type: AssertVotes, User: "bob", Qty: ptr(int64(9))},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_AdvanceAndHarvest(t *testing.T) {
	s := parse(t, `
name: harvest
description: yield accrues with the manual clock
catalog: |
  module: sundial: yield: {item: "tick", per_day: 24, max: 100}
users: [{id: alice}]
inventory:
  alice: {sundial: 1}
steps:
  - {op: place, user: alice, item: sundial, as: d}
  - {op: advance, duration: 5h30m}
  - op: harvest
    module: d
    expect:
      result:
        yield: {item: tick, quantity: 5, time_remainder: 30m0s}
        module: {last_harvest: "2024-01-01T05:00:00Z"}
assertions:
  - {type: inventory, user: alice, item: tick, qty: 5}
  - {type: interactions, module: d, kind: harvest, count: 1}
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, ir.String("2024-01-01T05:30:00Z"), result.Trace[1].Result["now"])
}

func TestRun_DailyVotesAndGrid(t *testing.T) {
	s := parse(t, `
name: overrides
description: allowance and grid size follow the scenario
catalog: "module: rock: {}"
daily_votes: 1
grid: {width: 1, height: 1}
rand:
  fallback: {float: 0.5, int: 0}
users: [{id: alice}, {id: bob}]
inventory:
  alice: {rock: 2}
steps:
  - {op: place, user: alice, item: rock, pos: {x: 0, y: 0}, as: r}
  - op: place
    user: alice
    item: rock
    pos: {x: 1, y: 0}
    expect: {error: OUT_OF_BOUNDS}
  - {op: click, module: r, user: bob}
  - op: click
    module: r
    user: bob
    expect: {error: NO_INTERACTIONS_REMAINING}
  - op: refresh
    expect:
      result: {profiles: 2}
  - {op: click, module: r, user: bob}
assertions:
  - {type: votes, user: bob, qty: 0}
  - {type: inventory, user: alice, item: rock, qty: 1}
  - {type: module, module: r, expect: {total_clicks: 2, state: not_applicable}}
`)
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_SeedErrors(t *testing.T) {
	s := &Scenario{
		Name:        "bad catalog",
		Description: "catalog errors abort the run",
		Catalog:     "module: rock: editor: \"NOPE\"",
		Steps:       []Step{{Op: OpRefresh}},
	}
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load catalog")

	s = &Scenario{
		Name:        "bad friend",
		Description: "self friendships abort seeding",
		Catalog:     "module: rock: {}",
		Users:       []UserDef{{ID: "alice"}},
		Friends:     []FriendDef{{From: "alice", To: "alice"}},
		Steps:       []Step{{Op: OpRefresh}},
	}
	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to seed world")
}

func ptr[T any](v T) *T { return &v }
