package reconciliation

import (
	"github.com/fortuna/tradedesk/internal/names"
	"github.com/fortuna/tradedesk/internal/teams"
)

// FuzzyThreshold is the minimum similarity accepted as a fuzzy match.
const FuzzyThreshold = 0.85

// MatchType says which strategy produced a MatchResult.
type MatchType string

const (
	MatchExact     MatchType = "exact"
	MatchAlias     MatchType = "alias"
	MatchFuzzy     MatchType = "fuzzy"
	MatchUnmatched MatchType = "unmatched"
)

// PlayerRecord is one authoritative roster entry.
type PlayerRecord struct {
	ID            int        `json:"id"`
	CanonicalName string     `json:"canonicalName"`
	Rating        int        `json:"rating"`
	Team          teams.Name `json:"team,omitempty"`
}

// MatchResult is the outcome of reconciling one external name.
// Record is nil exactly when MatchType is MatchUnmatched.
type MatchResult struct {
	Query     string        `json:"query"`
	Record    *PlayerRecord `json:"record"`
	MatchType MatchType     `json:"matchType"`
	Score     float64       `json:"score"`
}

// Matched reports whether the result points at a roster record.
func (r MatchResult) Matched() bool {
	return r.Record != nil
}

// Matcher reconciles external player names against a roster. It holds no
// mutable state and is safe for concurrent use.
type Matcher struct {
	aliases map[string]string // normalized alias -> normalized canonical name
}

// NewMatcher builds a matcher from one or more alias tables. Later tables
// override earlier ones for the same alias.
func NewMatcher(tables ...PlayerAliases) *Matcher {
	aliases := make(map[string]string)
	for _, table := range tables {
		for alias, canonical := range table {
			key := names.Normalize(alias)
			if key == "" {
				continue
			}
			aliases[key] = names.Normalize(canonical)
		}
	}
	return &Matcher{aliases: aliases}
}

// Reconcile matches query against roster using, in order, exact normalized
// equality, the alias table, and edit-distance similarity. The first strategy
// that produces a match wins. It never fails: a miss is MatchUnmatched with
// the best similarity seen.
func (m *Matcher) Reconcile(query string, roster []PlayerRecord) MatchResult {
	key := names.Normalize(query)
	result := MatchResult{Query: query, MatchType: MatchUnmatched}

	// Exact
	if i := indexOfName(key, roster); i >= 0 {
		result.Record = &roster[i]
		result.MatchType = MatchExact
		result.Score = 1.0
		return result
	}

	// Alias
	if target, ok := m.aliases[key]; ok {
		if i := indexOfName(target, roster); i >= 0 {
			result.Record = &roster[i]
			result.MatchType = MatchAlias
			result.Score = 1.0
			return result
		}
		// The roster may spell the target differently (accents, suffixes).
		if i, score := bestMatch(target, roster); i >= 0 && score >= FuzzyThreshold {
			result.Record = &roster[i]
			result.MatchType = MatchAlias
			result.Score = score
			return result
		}
	}

	// Fuzzy
	i, score := bestMatch(key, roster)
	result.Score = score
	if i >= 0 && score >= FuzzyThreshold {
		result.Record = &roster[i]
		result.MatchType = MatchFuzzy
	}
	return result
}

func indexOfName(key string, roster []PlayerRecord) int {
	for i := range roster {
		if names.Normalize(roster[i].CanonicalName) == key {
			return i
		}
	}
	return -1
}

// bestMatch returns the first roster index with the highest similarity to
// key, or -1 when the roster is empty.
func bestMatch(key string, roster []PlayerRecord) (int, float64) {
	best := -1
	bestScore := 0.0
	for i := range roster {
		score := names.Similarity(key, names.Normalize(roster[i].CanonicalName))
		if best < 0 || score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best, bestScore
}
