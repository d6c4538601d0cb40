// Package logging assembles structured slog loggers and formatting helpers used
// across KeepMePrivate.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so monitor code can tag log
// lines with the monitor that produced them. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
