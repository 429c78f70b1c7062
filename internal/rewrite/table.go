package rewrite

import (
	"fmt"
	"strings"
)

// Default host names and label strings.
const (
	DefaultPrimaryDomain = "yfy0109.github.io"
	DefaultMirrorDomain  = "yfy0109.top"

	DefaultVisitPrimaryLabel = "访问主站"
	DefaultVisitMirrorLabel  = "访问备用站"
	DefaultPrimaryLabel      = "主站点"
	DefaultMirrorLabel       = "备用站点"
)

// Domains is the pair of host names a site is published under.
type Domains struct {
	Primary string `yaml:"primary"`
	Mirror  string `yaml:"mirror"`
}

// Labels holds the link texts that name the alternate site.
type Labels struct {
	VisitPrimary string `yaml:"visit_primary"`
	VisitMirror  string `yaml:"visit_mirror"`
	Primary      string `yaml:"primary"`
	Mirror       string `yaml:"mirror"`
}

// DefaultDomains returns the built-in host names.
func DefaultDomains() Domains {
	return Domains{Primary: DefaultPrimaryDomain, Mirror: DefaultMirrorDomain}
}

// DefaultLabels returns the built-in link texts.
func DefaultLabels() Labels {
	return Labels{
		VisitPrimary: DefaultVisitPrimaryLabel,
		VisitMirror:  DefaultVisitMirrorLabel,
		Primary:      DefaultPrimaryLabel,
		Mirror:       DefaultMirrorLabel,
	}
}

// Rule is one literal from -> to replacement.
type Rule struct {
	From string
	To   string
}

// Table returns the ordered substitution rules for mode.
func Table(mode Mode, d Domains, l Labels) []Rule {
	if mode == ModePrimary {
		return []Rule{
			{From: d.Mirror, To: d.Primary},
			{From: l.VisitMirror, To: l.VisitPrimary},
			{From: l.Mirror, To: l.Primary},
		}
	}
	return []Rule{
		{From: d.Primary, To: d.Mirror},
		{From: l.VisitPrimary, To: l.VisitMirror},
		{From: l.Primary, To: l.Mirror},
	}
}

// Apply runs every rule over content in order, replacing all occurrences.
func Apply(content string, rules []Rule) string {
	for _, r := range rules {
		if r.From == "" || r.From == r.To {
			continue
		}
		content = strings.ReplaceAll(content, r.From, r.To)
	}
	return content
}

// ValidateTable rejects domain/label sets for which a second run would not be
// a no-op or mirror-then-primary would not restore the input.
func ValidateTable(d Domains, l Labels) error {
	fields := []struct{ name, value string }{
		{"domains.primary", d.Primary},
		{"domains.mirror", d.Mirror},
		{"labels.visit_primary", l.VisitPrimary},
		{"labels.visit_mirror", l.VisitMirror},
		{"labels.primary", l.Primary},
		{"labels.mirror", l.Mirror},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidTable, f.name)
		}
	}
	if overlaps(d.Primary, d.Mirror) {
		return fmt.Errorf("%w: domains %q and %q overlap", ErrInvalidTable, d.Primary, d.Mirror)
	}
	if overlaps(l.Primary, l.Mirror) {
		return fmt.Errorf("%w: labels %q and %q overlap", ErrInvalidTable, l.Primary, l.Mirror)
	}
	// A replacement result that still contains a later pattern would be
	// rewritten again on the next run.
	if strings.Contains(l.VisitMirror, l.Primary) || strings.Contains(l.VisitPrimary, l.Mirror) {
		return fmt.Errorf("%w: visit labels must not contain the other site label", ErrInvalidTable)
	}
	return nil
}

// overlaps reports whether either string contains the other.
func overlaps(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
