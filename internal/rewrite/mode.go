package rewrite

import (
	"fmt"
	"strings"
)

// Mode selects which host the published tree is generated for.
type Mode string

const (
	// ModeMirror publishes toward the mirror domain (primary -> mirror).
	ModeMirror Mode = "mirror"
	// ModePrimary publishes toward the primary domain (mirror -> primary).
	ModePrimary Mode = "primary"
)

// Modes lists the valid modes in display order.
func Modes() []Mode { return []Mode{ModeMirror, ModePrimary} }

// ParseMode normalizes s to a Mode. Matching is case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeMirror:
		return ModeMirror, nil
	case ModePrimary:
		return ModePrimary, nil
	default:
		return "", fmt.Errorf("%w: %q (want %q or %q)", ErrUnknownMode, s, ModeMirror, ModePrimary)
	}
}

// Opposite returns the mode that undoes m.
func (m Mode) Opposite() Mode {
	if m == ModePrimary {
		return ModeMirror
	}
	return ModePrimary
}

func (m Mode) String() string { return string(m) }
