package copier

import "strings"

// DefaultExclude lists directory names that are never copied or descended into.
var DefaultExclude = []string{".git", ".github", "__pycache__", ".cache", "node_modules"}

// Filter decides which names are pruned or skipped.
type Filter struct {
	exclude    map[string]struct{}
	keepHidden map[string]struct{}
}

// NewFilter builds a filter from excluded directory names and hidden names
// that should still be copied. Exclusion wins over keepHidden.
func NewFilter(exclude, keepHidden []string) *Filter {
	f := &Filter{
		exclude:    make(map[string]struct{}, len(exclude)),
		keepHidden: make(map[string]struct{}, len(keepHidden)),
	}
	for _, n := range exclude {
		if n = strings.TrimSpace(n); n != "" {
			f.exclude[n] = struct{}{}
		}
	}
	for _, n := range keepHidden {
		if n = strings.TrimSpace(n); n != "" {
			f.keepHidden[n] = struct{}{}
		}
	}
	return f
}

// Excluded reports whether name is in the exclusion set.
func (f *Filter) Excluded(name string) bool {
	_, ok := f.exclude[name]
	return ok
}

// Hidden reports whether name is a hidden entry that is not allow-listed.
func (f *Filter) Hidden(name string) bool {
	if !strings.HasPrefix(name, ".") {
		return false
	}
	_, keep := f.keepHidden[name]
	return !keep
}

// SkipDir reports whether a directory is pruned, and why.
func (f *Filter) SkipDir(name string) (bool, string) {
	switch {
	case f.Excluded(name):
		return true, "excluded"
	case f.Hidden(name):
		return true, "hidden"
	default:
		return false, ""
	}
}

// SkipFile reports whether a file is skipped, and why.
func (f *Filter) SkipFile(name string) (bool, string) {
	if f.Hidden(name) {
		return true, "hidden"
	}
	return false, ""
}
