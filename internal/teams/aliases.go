package teams

// AliasTable maps an alternate spelling to its canonical team. Keys are
// normalized when a Resolver is built, so they may be written naturally.
type AliasTable map[string]Name

// DefaultAliases covers city names, nicknames, abbreviations and the common
// misspellings that show up in trade posts.
var DefaultAliases = AliasTable{
	// Bucks
	"milwaukee": Bucks, "mil": Bucks, "buck": Bucks,
	// Bulls
	"chicago": Bulls, "chi": Bulls, "bull": Bulls,
	// Cavaliers
	"cleveland": Cavaliers, "cle": Cavaliers, "cavs": Cavaliers, "cav": Cavaliers, "cavalier": Cavaliers,
	// Celtics
	"boston": Celtics, "bos": Celtics, "celtic": Celtics, "celts": Celtics,
	// Grizzlies
	"memphis": Grizzlies, "mem": Grizzlies, "grizz": Grizzlies, "grizzly": Grizzlies, "grizzles": Grizzlies,
	// Hawks
	"atlanta": Hawks, "atl": Hawks, "hawk": Hawks,
	// Heat
	"miami": Heat, "mia": Heat,
	// Hornets
	"charlotte": Hornets, "cha": Hornets, "hornet": Hornets,
	// Jazz
	"utah": Jazz, "uta": Jazz,
	// Kings
	"sacramento": Kings, "sac": Kings, "king": Kings,
	// Knicks
	"new york": Knicks, "ny": Knicks, "nyk": Knicks, "knick": Knicks, "nicks": Knicks,
	// Lakers
	"los angeles lakers": Lakers, "la lakers": Lakers, "lal": Lakers, "laker": Lakers,
	// Mavs
	"dallas": Mavs, "dal": Mavs, "mavericks": Mavs, "maverick": Mavs, "mav": Mavs,
	// Nets
	"brooklyn": Nets, "bkn": Nets, "bk": Nets,
	// Nuggets
	"denver": Nuggets, "den": Nuggets, "nugs": Nuggets, "nugget": Nuggets,
	// Pacers
	"indiana": Pacers, "ind": Pacers, "pacer": Pacers,
	// Pelicans
	"new orleans": Pelicans, "nola": Pelicans, "nop": Pelicans, "pels": Pelicans, "pelican": Pelicans,
	// Pistons
	"detroit": Pistons, "det": Pistons, "piston": Pistons,
	// Raptors
	"toronto": Raptors, "tor": Raptors, "raps": Raptors, "raptor": Raptors,
	// Rockets
	"houston": Rockets, "hou": Rockets, "rocket": Rockets,
	// Sixers
	"76ers": Sixers, "seventy sixers": Sixers, "philadelphia": Sixers, "philly": Sixers, "phi": Sixers, "sixer": Sixers,
	// Spurs
	"san antonio": Spurs, "sas": Spurs, "sa": Spurs, "spur": Spurs,
	// Suns
	"phoenix": Suns, "phx": Suns, "sun": Suns,
	// Thunder
	"oklahoma city": Thunder, "okc": Thunder,
	// Timberwolves
	"minnesota": Timberwolves, "min": Timberwolves, "wolves": Timberwolves, "twolves": Timberwolves,
	"t-wolves": Timberwolves, "timberwolf": Timberwolves,
	// Trail Blazers
	"portland": TrailBlazers, "por": TrailBlazers, "blazers": TrailBlazers, "trailblazers": TrailBlazers,
	"trail blazer": TrailBlazers, "blazer": TrailBlazers,
	// Warriors
	"golden state": Warriors, "gsw": Warriors, "gs": Warriors, "dubs": Warriors, "warrior": Warriors,
	// Wizards
	"washington": Wizards, "was": Wizards, "wiz": Wizards, "wizard": Wizards,
	// Free Agents
	"fa": FreeAgents, "free agent": FreeAgents, "freeagents": FreeAgents, "free agency": FreeAgents,
}
