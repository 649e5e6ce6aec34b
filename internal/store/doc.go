// Package store provides SQLite-backed durable storage for the tracker.
//
// Four tables back the core:
//   - records: incident records keyed by their published timestamp (insert-if-absent)
//   - parties: watched parties and their notification destinations
//   - terms: watch terms, unique across the whole registry
//   - decisions: the append-only match log, unique per (published, term, party)
//
// # Idempotency
//
// Every write that can be replayed uses INSERT ... ON CONFLICT DO NOTHING and
// reports through RowsAffected whether a row was created. Duplicate records,
// duplicate terms and replayed decisions are successful no-ops.
//
// # Ordering
//
// Reads are ordered by the autoincrement id, which is insertion order. The
// match engine relies on this for stable output.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The schema is managed by goose migrations embedded from migrations/.
package store
