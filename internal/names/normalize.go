// Package names holds the text primitives shared by team resolution and
// player reconciliation: normalization and edit-distance similarity.
package names

import (
	"strings"
)

// apostropheReplacer folds the apostrophe look-alikes seen in pasted text.
var apostropheReplacer = strings.NewReplacer(
	"’", "'", // right single quote
	"‘", "'", // left single quote
	"`", "'",
	"´", "'", // acute accent
	"ʼ", "'", // modifier letter apostrophe
	"′", "'", // prime
	"＇", "'", // fullwidth apostrophe
)

// Normalize maps a free-form name to its comparison key: lowercased,
// apostrophes unified, periods and hyphens turned into spaces, whitespace
// collapsed and trimmed. Diacritics are kept.
//
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = apostropheReplacer.Replace(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '.', '-':
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
