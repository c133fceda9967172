// Package textnorm holds the text normalization shared by heading detection,
// supervisor detection and tag extraction.
package textnorm

import "strings"

// Go's \b only understands ASCII word characters, which makes it useless for
// Cyrillic text. These fragments stand in for a Unicode-aware \b.
const (
	WordStart = `(?:^|[^\p{L}\p{N}_])`
	WordEnd   = `(?:[^\p{L}\p{N}_]|$)`
)

// Fold trims, lowercases and folds "ё" into "е" so that the two spellings of
// a word compare equal.
func Fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "ё", "е")
}

// Collapse replaces every run of whitespace (newlines and carriage returns
// included) with a single space and trims the result.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
