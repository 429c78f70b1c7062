package copier

import "errors"

var (
	// ErrSourceNotFound indicates the source root is missing or not a directory.
	ErrSourceNotFound = errors.New("source directory not found")

	// ErrUnsupportedEntry indicates an entry that is neither a regular file nor a directory.
	ErrUnsupportedEntry = errors.New("unsupported file type")
)
