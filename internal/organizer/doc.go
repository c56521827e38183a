// Package organizer places managed files at their canonical library location.
//
// It is the public entry point of the library: MoveForReorganization relocates
// a file whose metadata changed, MoveForImport and CopyForImport place a newly
// discovered file for the first time. Each operation computes a destination
// plan, checks its preconditions, materializes the folder levels, transfers
// the file and then runs best-effort bookkeeping (timestamps, permissions,
// history, pruning). Only precondition, root folder and transfer failures are
// returned to the caller; everything after a successful transfer is logged.
//
// Operations never mutate the caller's ManagedFile. On success they return a
// relocated copy, on failure the zero value.
package organizer
