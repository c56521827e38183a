// Package disk wraps the filesystem calls the organizer depends on: existence
// checks, single-level folder creation, permission policy and path validity.
//
// Every call is synchronous and may fail with an I/O error. Tests substitute
// their own Provider to inject failures.
package disk
