// Package teams defines the league's canonical franchise names and resolves
// the many ways people spell them.
package teams

import "github.com/fortuna/tradedesk/internal/names"

// Name is a canonical franchise name. The set is fixed at compile time.
type Name string

const (
	Bucks        Name = "Bucks"
	Bulls        Name = "Bulls"
	Cavaliers    Name = "Cavaliers"
	Celtics      Name = "Celtics"
	Grizzlies    Name = "Grizzlies"
	Hawks        Name = "Hawks"
	Heat         Name = "Heat"
	Hornets      Name = "Hornets"
	Jazz         Name = "Jazz"
	Kings        Name = "Kings"
	Knicks       Name = "Knicks"
	Lakers       Name = "Lakers"
	Magic        Name = "Magic"
	Mavs         Name = "Mavs"
	Nets         Name = "Nets"
	Nuggets      Name = "Nuggets"
	Pacers       Name = "Pacers"
	Pelicans     Name = "Pelicans"
	Pistons      Name = "Pistons"
	Raptors      Name = "Raptors"
	Rockets      Name = "Rockets"
	Sixers       Name = "Sixers"
	Spurs        Name = "Spurs"
	Suns         Name = "Suns"
	Thunder      Name = "Thunder"
	Timberwolves Name = "Timberwolves"
	TrailBlazers Name = "Trail Blazers"
	Warriors     Name = "Warriors"
	Wizards      Name = "Wizards"

	// FreeAgents is the pool of unsigned players, not a franchise.
	FreeAgents Name = "Free Agents"
)

// Canonical lists every valid team name in display order.
var Canonical = []Name{
	Bucks, Bulls, Cavaliers, Celtics, Grizzlies, Hawks, Heat, Hornets, Jazz,
	Kings, Knicks, Lakers, Magic, Mavs, Nets, Nuggets, Pacers, Pelicans,
	Pistons, Raptors, Rockets, Sixers, Spurs, Suns, Thunder, Timberwolves,
	TrailBlazers, Warriors, Wizards, FreeAgents,
}

var canonicalByKey = func() map[string]Name {
	m := make(map[string]Name, len(Canonical))
	for _, n := range Canonical {
		m[names.Normalize(string(n))] = n
	}
	return m
}()

// IsCanonical reports whether s is exactly one of the canonical names.
func IsCanonical(s string) bool {
	n, ok := canonicalByKey[names.Normalize(s)]
	return ok && string(n) == s
}

// Franchises returns the canonical names without Free Agents.
func Franchises() []Name {
	out := make([]Name, 0, len(Canonical)-1)
	for _, n := range Canonical {
		if n != FreeAgents {
			out = append(out, n)
		}
	}
	return out
}
