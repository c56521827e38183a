// Package catalog persists managed file records and transfer history in SQLite.
//
// The Store implements organizer.Recorder, so every organizer operation
// leaves a history row, and moved files have their stored path replaced in
// the same transaction. Writes retry on SQLITE_BUSY with a short backoff
// because the watch daemon and one-off CLI commands may share the database.
package catalog
