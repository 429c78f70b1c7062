// Package rewrite flips domain references and alternate-site labels in
// published HTML files.
//
// Substitution is plain literal replacement, applied in a fixed order:
// the domain first, then the long "visit ... site" label, then the short
// "... site" label. The short label is a suffix of the long one, so the long
// label must go first or it would be half-rewritten.
//
// Two modes exist. ModeMirror turns primary references into mirror ones and
// ModePrimary does the reverse; the label direction always follows the domain
// direction so a page names the other host as its alternate.
package rewrite
