// Package logging assembles structured slog loggers and formatting helpers used
// across lecturesync.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so stage code can automatically tag log
// lines with the run ID, pipeline stage, and input role. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Loggers are always passed explicitly; nothing in this package installs a
// process-wide default.
package logging
