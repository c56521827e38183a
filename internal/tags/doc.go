// Package tags resolves author and book metadata for files dropped into the
// inbox.
//
// Embedded tags are read with dhowden/tag. Files without readable tags fall
// back to the inbox layout: <inbox>/<Author>/<Title>/<file> or
// <inbox>/<Author>/<file>.
package tags
