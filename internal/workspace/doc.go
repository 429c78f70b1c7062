// Package workspace manages the output tree a publish run owns.
//
// A run validates that the output cannot swallow the source, takes an
// exclusive lock beside the output directory, deletes and recreates the
// output, and releases the lock when done. The output tree is never reused
// between runs.
package workspace
