// Package harness runs scripted scenarios against the economy engine.
//
// A scenario builds a small world, runs engine operations in order and checks
// the outcome. Every run uses an in-memory store, a manual clock and a
// scripted random source, so the trace of a scenario is reproducible byte
// for byte and can be compared against a golden file.
//
// # Scenario Format
//
//	name: lemonade_day
//	description: "A guest click spends the stand's setup"
//	catalog: |
//	  module: stand: {
//	    yield: {item: "lemon", per_day: 2, max: 10}
//	    setup: [{item: "sugar", qty: 1}]
//	  }
//	start: 2024-01-01T00:00:00Z
//	rand:
//	  floats: [0.2]
//	users:
//	  - id: alice
//	  - id: bob
//	friends:
//	  - {from: alice, to: bob}
//	inventory:
//	  alice: {stand: 1, sugar: 2}
//	steps:
//	  - {op: place, user: alice, item: stand, pos: {x: 0, y: 0}, as: s}
//	  - {op: setup, module: s}
//	  - op: click
//	    module: s
//	    user: bob
//	    expect:
//	      result: {module: {state: needs_setup}}
//	  - op: click
//	    module: s
//	    user: bob
//	    expect: {error: NOT_CLICKABLE}
//	assertions:
//	  - {type: inventory, user: alice, item: sugar, qty: 1}
//
// # Step Operations
//
// place, remove, setup, teardown, harvest, preview, click, prize, trade and
// give call the engine operation of the same name. advance moves the clock
// by a duration; refresh restores daily allowances.
//
// # Assertion Types
//
//   - inventory: a user holds exactly qty of an item
//   - votes: a user's remaining allowance
//   - module: a module matches expect (subset), or is absent
//   - messages: message count, optionally for one recipient
//   - interactions: audit row count, optionally by module, actor or kind
package harness
