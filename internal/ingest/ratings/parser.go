package ratings

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/tradedesk/internal/reconciliation"
)

// Selectors locate the roster table on a team ratings page.
type Selectors struct {
	Row    string
	Name   string
	Rating string
}

// DefaultSelectors match the team roster table of the ratings site.
var DefaultSelectors = Selectors{
	Row:    "table tbody tr",
	Name:   "td.entry-font a",
	Rating: "td span.attribute-box",
}

var ratingRe = regexp.MustCompile(`\d{2,3}`)

// ParseResult holds the ratings found on one page plus rows that could not be
// read.
type ParseResult struct {
	Ratings []reconciliation.ExternalRating
	Skipped []string
}

// ParseTeamPage extracts player ratings from a team roster page.
func ParseTeamPage(r io.Reader, sel Selectors, source string) (*ParseResult, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return parseDocument(doc, sel, source), nil
}

func parseDocument(doc *goquery.Document, sel Selectors, source string) *ParseResult {
	result := &ParseResult{}

	doc.Find(sel.Row).Each(func(_ int, row *goquery.Selection) {
		name := strings.Join(strings.Fields(row.Find(sel.Name).First().Text()), " ")
		if name == "" {
			// header or spacer row
			return
		}

		rating, ok := parseRating(row.Find(sel.Rating).First().Text())
		if !ok {
			result.Skipped = append(result.Skipped, name)
			return
		}

		result.Ratings = append(result.Ratings, reconciliation.ExternalRating{
			Name:   name,
			Rating: rating,
			Source: source,
		})
	})

	return result
}

func parseRating(text string) (int, bool) {
	m := ratingRe.FindString(text)
	if m == "" {
		return 0, false
	}
	v, err := strconv.Atoi(m)
	if err != nil || v > 99 {
		return 0, false
	}
	return v, true
}
