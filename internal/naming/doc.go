// Package naming renders canonical folder and file names from library metadata.
//
// Templates use brace tokens such as {Author Name} and {Book Title}. The
// casing of a token controls the casing of its value, and an optional
// ":upper", ":lower", ":title" or zero-pad suffix ("{PartNumber:00}")
// overrides it. Every rendered segment is normalized to NFC, stripped of
// characters that are illegal on common filesystems, and trimmed of trailing
// dots and spaces. Nothing here touches the filesystem.
package naming
