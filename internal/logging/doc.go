// Package logging assembles the structured slog loggers used across optflow.
//
// It owns the console and JSON handlers, level parsing and output routing.
// Command output goes to stdout, so log lines default to stderr plus an
// optional log file. Components derive tagged loggers with
// NewComponentLogger; tests and wiring code that cannot fail use NewNop.
package logging
