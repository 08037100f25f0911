// Package store provides SQLite-backed durable storage for gridyield.
//
// Tables:
//   - profiles: per-user vote allowance and networker flag
//   - friendships: directed rows, accepted when status is 'friend'
//   - inventory: the item ledger, CHECK(qty >= 0)
//   - modules: placed module instances, one per (owner, pos_x, pos_y)
//   - messages: the outbox written after an operation commits
//   - interactions: append-only audit rows, idempotent on content-hash id
//
// Every engine operation runs inside one InTx call. Any error returned from
// the callback rolls back all of its writes.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - one open connection: transactions are serialised
//
// Timestamps are stored as INTEGER unix microseconds in UTC.
package store
