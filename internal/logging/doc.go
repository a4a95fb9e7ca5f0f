// Package logging provides slog helpers with consistent attribute naming
// for run-scoped structured logs.
//
// A hard privacy invariant applies across the codebase: message subjects,
// bodies, and sender addresses never reach the logger. Call sites log ids,
// counters, and codes only; AnonymizeEmail exists for the rare place an
// address must be correlated across entries.
package logging
