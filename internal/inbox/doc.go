// Package inbox imports files dropped into the inbox folder and runs the
// long-lived watch daemon.
//
// Importer resolves metadata for one file (embedded tags first, folder layout
// second), hands it to the organizer using the configured import mode, stores
// the resulting record in the catalog, and prunes emptied inbox folders.
//
// Daemon holds the single-instance lock, watches the inbox for new files,
// watches the library for external changes with self-inflicted events
// suppressed, and optionally serves Prometheus metrics.
package inbox
