// Package logging assembles structured slog loggers and formatting helpers used
// across rostersync.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// rotates the on-disk log file, and stamps every record of a CLI invocation
// with its operation ID so install batches can be traced through the log and
// the history ledger. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the tool.
package logging
