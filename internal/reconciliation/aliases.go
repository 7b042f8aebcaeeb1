package reconciliation

// PlayerAliases maps a nickname or known misspelling to a canonical player
// name. Keys are normalized when a Matcher is built.
type PlayerAliases map[string]string

// DefaultPlayerAliases is the built-in nickname table. Learned aliases from
// storage are layered on top of it.
var DefaultPlayerAliases = PlayerAliases{
	"cp3":                "Chris Paul",
	"lebron":             "LeBron James",
	"king james":         "LeBron James",
	"bron":               "LeBron James",
	"greek freak":        "Giannis Antetokounmpo",
	"giannis":            "Giannis Antetokounmpo",
	"antetokounmpo":      "Giannis Antetokounmpo",
	"ad":                 "Anthony Davis",
	"kd":                 "Kevin Durant",
	"steph":              "Stephen Curry",
	"chef curry":         "Stephen Curry",
	"dame":               "Damian Lillard",
	"pg13":               "Paul George",
	"pg":                 "Paul George",
	"kawhi":              "Kawhi Leonard",
	"joker":              "Nikola Jokić",
	"jokic":              "Nikola Jokić",
	"embiid":             "Joel Embiid",
	"ja":                 "Ja Morant",
	"luka":               "Luka Dončić",
	"doncic":             "Luka Dončić",
	"sga":                "Shai Gilgeous-Alexander",
	"gilgeous alexander": "Shai Gilgeous-Alexander",
	"kat":                "Karl-Anthony Towns",
	"towns":              "Karl-Anthony Towns",
	"bam":                "Bam Adebayo",
	"kyrie":              "Kyrie Irving",
	"jimmy":              "Jimmy Butler",
	"zion":               "Zion Williamson",
	"ant":                "Anthony Edwards",
	"trae":               "Trae Young",
	"booker":             "Devin Booker",
	"book":               "Devin Booker",
	"wemby":              "Victor Wembanyama",
	"sengun":             "Alperen Şengün",
	"krejci":             "Vit Krejci",
	"vit kreji":          "Vit Krejci",
	"kyle flipowski":     "Kyle Filipowski",
	"dangelo russell":    "D'Angelo Russell",
	"angelo russell":     "D'Angelo Russell",
	"mo bamba":           "Mohamed Bamba",
	"mohammed bamba":     "Mohamed Bamba",
}
