// Package trade parses free-form trade announcements into structured,
// validated sections, one per participating team.
package trade

import "github.com/fortuna/tradedesk/internal/teams"

// PlayerLine is one player entry parsed from a trade post.
type PlayerLine struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"`
	Badges int    `json:"badges"`
}

// Section is one team's portion of a trade. TeamName is nil when the header
// token could not be resolved; RawTeam always holds the token as written.
type Section struct {
	TeamName            *teams.Name  `json:"teamName"`
	RawTeam             string       `json:"rawTeam"`
	Sends               []PlayerLine `json:"sends"`
	Receives            []PlayerLine `json:"receives"`
	SendsTotalRating    int          `json:"sendsTotalRating"`
	SendsTotalBadges    int          `json:"sendsTotalBadges"`
	ReceivesTotalRating int          `json:"receivesTotalRating"`
	ReceivesTotalBadges int          `json:"receivesTotalBadges"`
	HasDeclaredTotals   bool         `json:"hasDeclaredTotals"`
}

// DisplayName is the canonical team name, or the raw token when unresolved.
func (s *Section) DisplayName() string {
	if s.TeamName != nil {
		return string(*s.TeamName)
	}
	return s.RawTeam
}

// PlayerCount is the number of players on both sides.
func (s *Section) PlayerCount() int {
	return len(s.Sends) + len(s.Receives)
}

// ComputedSends sums rating and badges over the sends list.
func (s *Section) ComputedSends() (rating, badges int) {
	return sum(s.Sends)
}

// ComputedReceives sums rating and badges over the receives list.
func (s *Section) ComputedReceives() (rating, badges int) {
	return sum(s.Receives)
}

func sum(lines []PlayerLine) (rating, badges int) {
	for _, l := range lines {
		rating += l.Rating
		badges += l.Badges
	}
	return rating, badges
}

// ParsedTrade is the result of parsing one trade post. Errors and Warnings
// are human-readable and ordered; IsValid is derived from them by the parser.
type ParsedTrade struct {
	Teams    []Section `json:"teams"`
	IsValid  bool      `json:"isValid"`
	Errors   []string  `json:"errors"`
	Warnings []string  `json:"warnings,omitempty"`
}

// Valid recomputes validity: no errors and at least one team.
func (p *ParsedTrade) Valid() bool {
	return len(p.Errors) == 0 && len(p.Teams) > 0
}

// Team returns the first section for the given canonical team.
func (p *ParsedTrade) Team(name teams.Name) (*Section, bool) {
	for i := range p.Teams {
		if p.Teams[i].TeamName != nil && *p.Teams[i].TeamName == name {
			return &p.Teams[i], true
		}
	}
	return nil, false
}
