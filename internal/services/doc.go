// Package services defines shared utilities consumed by the organizer and its
// collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp managed file IDs, operation names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures so
//     callers can tell a bad request from a broken library.
//
// Use these helpers when wiring new organization logic so error handling and
// observability stay uniform across commands and the watch daemon.
package services
