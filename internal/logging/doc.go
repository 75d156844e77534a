// Package logging assembles structured slog loggers and formatting helpers used
// across billmailer.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so batch code can tag log lines
// with batch IDs and flat keys. A no-op logger is provided for tests and for
// wiring code that runs without configuration.
package logging
