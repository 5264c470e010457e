// Package history records every mutating roster operation in a small SQLite
// ledger so users can see what an install batch or removal changed.
//
// Each CLI invocation carries an operation ID (a UUID) that also appears on
// every log line, which ties a ledger row back to its log output. Rows are
// append-only. The database lives at <state_dir>/history.db; schema changes
// bump schemaVersion and users delete the file to adopt the new schema, the
// ledger being diagnostic rather than authoritative.
package history
