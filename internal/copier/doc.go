// Package copier mirrors the publishable part of a source tree into an
// output directory.
//
// Excluded directory names (version control, CI config, caches and the
// output directory itself) are pruned before descent, hidden entries are
// skipped, and every copied file keeps its permission bits and modification
// time. A failure on one entry is recorded and the walk moves on.
package copier
