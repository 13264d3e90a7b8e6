// Package store provides a SQLite-backed world and result log.
//
// A Store is a world.State: integer slots live in the state table and
// snapshots copy them into snapshot_entries. Reverting to a snapshot
// restores its entries, then drops that snapshot and every later one,
// matching the in-memory world. Each snapshot and revert runs in a single
// transaction.
//
// The results table is an append-only log of runner results, stored as
// canonical JSON (see internal/report) in insertion order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Snapshot entries cascade with their snapshot
//
// Snapshot handles and result IDs are UUIDv7 by default. Tests substitute
// testutil.SequentialGenerator for reproducible handles.
package store
