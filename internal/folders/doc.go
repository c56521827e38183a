// Package folders materializes the author, book and track folders a file's
// canonical path passes through.
//
// Ensure announces the levels to the watch notifier, refuses to continue when
// the library root is missing, and creates only the levels that are absent.
// Individual folder creation failures are logged and tolerated; the transfer
// that follows will surface a clearer error if the folder never appeared.
package folders
