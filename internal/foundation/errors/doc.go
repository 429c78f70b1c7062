// Package errors provides the classified error type used for fatal sitepub failures.
//
// Per-file copy and rewrite failures are not errors in this sense: they are
// collected as outcomes and reported. A ClassifiedError is what aborts a run
// (bad configuration, unsafe paths, lock contention, output reset failure) and
// carries the category the CLI adapter maps to an exit code.
//
//	err := errors.FileSystemError("failed to reset output directory").
//		WithCause(cause).
//		WithContext("path", out).
//		Build()
package errors
