// Package transfer places file bytes at a new path by moving, copying or
// hardlinking.
//
// A transfer never overwrites an existing destination and always propagates
// I/O errors. HardLinkOrCopy falls back to a verified copy whenever the
// filesystem refuses the link; the returned Outcome tells the caller which
// one happened, since a hardlink shares its inode with the source.
package transfer
