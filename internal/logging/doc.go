// Package logging assembles structured slog loggers and attribute helpers used
// across shelver.
//
// It owns the console (charmbracelet/log) and JSON handlers, fans output out
// to an optional log file, and exposes context-aware helpers so organizer code
// automatically tags log lines with managed file IDs, operation names, and
// correlation IDs. A no-op logger is provided for tests and wiring code that
// cannot fail.
package logging
