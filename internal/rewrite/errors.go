package rewrite

import "errors"

var (
	// ErrUnknownMode indicates a mode string other than mirror or primary.
	ErrUnknownMode = errors.New("unknown publish mode")

	// ErrInvalidTable indicates a substitution table that is not a fixed point or cannot round-trip.
	ErrInvalidTable = errors.New("invalid substitution table")

	// ErrRootNotFound indicates the directory to rewrite does not exist.
	ErrRootNotFound = errors.New("rewrite root not found")
)
