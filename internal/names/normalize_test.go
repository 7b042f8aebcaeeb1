package names

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "LeBron James", "lebron james"},
		{"trims and collapses", "  Ausar   Thompson \t", "ausar thompson"},
		{"periods become spaces", "P.J. Washington", "p j washington"},
		{"hyphens become spaces", "Shai Gilgeous-Alexander", "shai gilgeous alexander"},
		{"curly apostrophe", "De’Aaron Fox", "de'aaron fox"},
		{"backtick apostrophe", "D`Angelo Russell", "d'angelo russell"},
		{"keeps diacritics", "Nikola Jokić", "nikola jokić"},
		{"team token with hyphen", "T-Wolves", "t wolves"},
		{"empty", "", ""},
		{"only separators", " . - ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"LeBron James",
		"  P.J.   Tucker ",
		"De’Aaron  Fox",
		"Karl-Anthony Towns",
		"NIKOLA JOKIĆ",
		"@Sixers(nickname) Sends:",
		"--",
		"",
		"Ja Morant",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

// normalizeAlphabet is printable ASCII plus the apostrophe look-alikes.
func normalizeAlphabet() []rune {
	var out []rune
	for r := rune(0x20); r <= 0x7E; r++ {
		out = append(out, r)
	}
	return append(out, '’', '‘', '´', 'ʼ', '′', '＇', '\t', '\n')
}

func checkNormalized(t *testing.T, in string) {
	t.Helper()
	once := Normalize(in)
	assert.Equal(t, once, Normalize(once), "not idempotent for %q", in)
	assert.Equal(t, strings.TrimSpace(once), once, "untrimmed output for %q", in)
	assert.NotContains(t, once, "  ", "uncollapsed whitespace for %q", in)
	assert.NotContains(t, once, ".", "period kept for %q", in)
	assert.NotContains(t, once, "-", "hyphen kept for %q", in)
	for _, g := range []string{"’", "‘", "`", "´", "ʼ", "′", "＇"} {
		assert.NotContains(t, once, g, "apostrophe glyph kept for %q", in)
	}
}

func TestNormalizeIdempotentOverAlphabet(t *testing.T) {
	alphabet := normalizeAlphabet()

	for _, a := range alphabet {
		checkNormalized(t, string(a))
		for _, b := range alphabet {
			checkNormalized(t, string([]rune{a, b}))
			checkNormalized(t, string([]rune{'x', a, ' ', b, 'Y'}))
		}
	}
}

func FuzzNormalize(f *testing.F) {
	for _, seed := range []string{"", "LeBron James", "De’Aaron  Fox", "P.J. Tucker", "--", " . - ", "NIKOLA JOKIĆ"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, in string) {
		if !utf8.ValidString(in) {
			t.Skip()
		}
		once := Normalize(in)
		if again := Normalize(once); again != once {
			t.Fatalf("Normalize(%q) = %q, Normalize of that = %q", in, once, again)
		}
	})
}
