// Package store provides SQLite-backed durable storage for the action log.
//
// Every action the engine applies is appended with its sequence number.
// Replaying the log through the reducer rebuilds each resource slice;
// snapshots checkpoint a slice so replay can start part way.
//
// # Ordering
//
// All reads order by seq ASC. Wall time is never stored, so replay yields
// the same slices on every machine.
//
// # Identity
//
// Log rows are keyed by action.LogID, a SHA-256 over the canonical JSON of
// (seq, action). Appending the same action at the same seq twice is a
// no-op; a different action at a used seq is an error.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - one open connection: SQLite has a single writer
package store
