// Package logs reads the shelver log file for the `shelver logs` command.
//
// Last returns the trailing lines of the file; Follow streams lines appended
// afterwards, using fsnotify to wake up and restarting from the beginning when
// the file is truncated or replaced.
package logs
