// Package store provides SQLite-backed durable storage for cost records.
//
// Tables:
//   - file_records: versioned source files per project and kind
//   - items: cost rows of the four item kinds, one table tagged by kind
//   - cost_summaries: versioned snapshots, at most one active per project
//   - audit_log: append-only change history, ordered by seq
//
// # Units of Work
//
// Every mutating engine operation runs inside WithTx. The Tx carries the
// same query methods as Store; reads made through the Tx see the writes of
// the same unit of work. The connection pool holds a single connection, so
// Store methods must not be called from inside a WithTx callback.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - _txlock=immediate: Write transactions take the write lock at BEGIN
//
// Decimals are stored as TEXT to keep them exact. Timestamps are stored as
// RFC 3339 TEXT in UTC.
package store
