// Package engine implements the module economy: placing modules on a page,
// setting them up, harvesting accrued yield, distributing click rewards and
// drawing arcade prizes.
//
// ARCHITECTURE:
//
// Every operation runs as one unit:
//  1. take the per-module lock
//  2. open a store transaction
//  3. read the module and its catalog entry, check preconditions
//  4. write ledger, profile and module changes plus one interaction row
//  5. commit, then hand queued messages to the Messenger and the
//     interaction to the Journal
//
// Any error in steps 3-4 rolls back the whole transaction, so a failed click
// never spends a vote and a failed setup never takes materials.
//
// Randomness and time are injected (Rand, Clock). With a scripted Rand and a
// manual Clock an operation sequence is fully reproducible, which the scenario
// harness relies on for golden traces.
//
// Module states:
//
//	NotApplicable - no setup concept; always clickable
//	NeedsSetup    - setup required; not clickable, yields nothing
//	SetUp         - clickable and accruing; harvest or a regular owner's
//	                click consumes the setup and returns to NeedsSetup
package engine
