// Package engine implements the cost engine's operations: file
// registration and ingestion, file validation, item confirmation and
// editing, and cost snapshot generation.
//
// # Units of Work
//
// Every operation runs in one store transaction. Item statuses, file
// statuses, locks, summaries and their audit entries commit together or
// not at all. A typed *Failure aborts the transaction exactly like a system
// fault, except where an operation documents a committed side effect (a
// failed parse is recorded before PARSE_FAILED is returned).
//
// # Serialization
//
// Snapshot generation reads the project's highest calculation version and
// its active summaries, then writes both. The engine serializes it per
// project with an in-process mutex; the store's BEGIN IMMEDIATE
// transactions serialize writers across processes.
//
// # Audit
//
// Operator actions are audited as create, update or confirm entries.
// Changes the engine derives on its own (item status, calculability, file
// status, parse status, locks, summary replacement) are audited as system
// entries. Nothing is audited when nothing changed, so re-running
// validation on unchanged data writes no entries.
package engine
