package trade

import (
	"regexp"
	"strings"
)

var (
	// Discord user, role and channel mentions plus custom emoji.
	mentionRe = regexp.MustCompile(`<(?:@[!&]?|#)\d+>|<a?:\w+:\d+>`)
	// Block quotes, headings and list bullets at the start of a line.
	linePrefixRe = regexp.MustCompile(`^(?:>+\s*|#{1,3}\s+|[•*]\s+|-\s+)+`)

	decorationReplacer = strings.NewReplacer(
		"**", "",
		"__", "",
		"~~", "",
		"||", "",
		"`", "",
		"*", "",
		"_", "",
	)
)

// StripDecoration removes chat formatting from text and returns its
// non-blank lines, trimmed. Bold, italic, underline, strike-through, spoiler
// and code markers are dropped, as are mentions, quote prefixes and bullets.
func StripDecoration(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		line = mentionRe.ReplaceAllString(line, "")
		line = linePrefixRe.ReplaceAllString(line, "")
		line = decorationReplacer.Replace(line)
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
