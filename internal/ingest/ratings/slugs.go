package ratings

import "github.com/fortuna/tradedesk/internal/teams"

// teamSlugs maps franchises to the path segment of their ratings page.
var teamSlugs = map[teams.Name]string{
	teams.Bucks:        "milwaukee-bucks",
	teams.Bulls:        "chicago-bulls",
	teams.Cavaliers:    "cleveland-cavaliers",
	teams.Celtics:      "boston-celtics",
	teams.Grizzlies:    "memphis-grizzlies",
	teams.Hawks:        "atlanta-hawks",
	teams.Heat:         "miami-heat",
	teams.Hornets:      "charlotte-hornets",
	teams.Jazz:         "utah-jazz",
	teams.Kings:        "sacramento-kings",
	teams.Knicks:       "new-york-knicks",
	teams.Lakers:       "los-angeles-lakers",
	teams.Magic:        "orlando-magic",
	teams.Mavs:         "dallas-mavericks",
	teams.Nets:         "brooklyn-nets",
	teams.Nuggets:      "denver-nuggets",
	teams.Pacers:       "indiana-pacers",
	teams.Pelicans:     "new-orleans-pelicans",
	teams.Pistons:      "detroit-pistons",
	teams.Raptors:      "toronto-raptors",
	teams.Rockets:      "houston-rockets",
	teams.Sixers:       "philadelphia-76ers",
	teams.Spurs:        "san-antonio-spurs",
	teams.Suns:         "phoenix-suns",
	teams.Thunder:      "oklahoma-city-thunder",
	teams.Timberwolves: "minnesota-timberwolves",
	teams.TrailBlazers: "portland-trail-blazers",
	teams.Warriors:     "golden-state-warriors",
	teams.Wizards:      "washington-wizards",
}

// Slug returns the ratings page slug for a franchise.
func Slug(team teams.Name) (string, bool) {
	s, ok := teamSlugs[team]
	return s, ok
}
