// Package library defines the records shelver organizes: managed files and the
// author, book and edition metadata that decide where they belong.
//
// Records are plain values. Operations that relocate a file return a new
// ManagedFile rather than mutating the caller's copy, so the caller decides
// when to replace what it has stored.
package library
