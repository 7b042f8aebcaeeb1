package trade

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fortuna/tradedesk/internal/teams"
)

var (
	// "@Sixers(The Process) Sends / Receives:" and "Hornets Send:".
	// Groups: mention marker, team token, "/ receives", colon.
	headerRe = regexp.MustCompile(`(?i)^(@)?\s*([\p{L}0-9][\p{L}0-9 .` + apostrophes + `\-]*?)\s*(?:\([^)]*\))?\s*\bsends?\b(\s*/\s*receives?)?\s*(:)?$`)

	// "235 (27) / 227 (20)"
	totalsRe = regexp.MustCompile(`(?i)^(\d+)\s*\(\s*(\d+)\s*(?:badges?)?\s*\)\s*/\s*(\d+)\s*\(\s*(\d+)\s*(?:badges?)?\s*\)$`)

	// "Total: 243 (31)"
	singleTotalRe = regexp.MustCompile(`(?i)^totals?\s*:?\s*(\d+)\s*\(\s*(\d+)\s*(?:badges?)?\s*\)$`)

	// "Ausar Thompson 82 (13)", "Gary Trent Jr.: 78 (8 badges)"
	playerRe = regexp.MustCompile(`(?i)^([\p{L}][\p{L}\s.` + apostrophes + `\-]*?)\s*:?\s*(\d+)\s*\(\s*(\d+)\s*(?:badges?)?\s*\)$`)

	// A rating followed by an opening paren; marks text that was meant as a
	// player entry even if it fails the full grammar.
	entryHintRe = regexp.MustCompile(`\d+\s*\(`)
)

const separator = "--"

// apostrophes lists the apostrophe glyphs accepted inside names, the same set
// names.Normalize folds. The backtick is absent: StripDecoration removes it.
const apostrophes = "'’‘´ʼ′＇"

// Options tunes parser behavior.
type Options struct {
	// StrictTotals turns declared-vs-computed total mismatches into errors
	// instead of warnings.
	StrictTotals bool
}

// Parser turns trade text into a ParsedTrade. It holds only immutable state
// and is safe for concurrent use.
type Parser struct {
	resolver *teams.Resolver
	opts     Options
}

// NewParser creates a parser that resolves team headers with resolver. A nil
// resolver uses the built-in alias table.
func NewParser(resolver *teams.Resolver, opts Options) *Parser {
	if resolver == nil {
		resolver = teams.Default()
	}
	return &Parser{resolver: resolver, opts: opts}
}

var defaultParser = NewParser(nil, Options{})

// Parse parses text with the default parser.
func Parse(text string) *ParsedTrade {
	return defaultParser.Parse(text)
}

// parseState is the per-call line state machine.
type parseState struct {
	result    *ParsedTrade
	current   *Section
	inPlayers bool
}

func (s *parseState) errorf(format string, args ...any) {
	s.result.Errors = append(s.result.Errors, fmt.Sprintf(format, args...))
}

func (s *parseState) flush() {
	if s.current != nil {
		s.result.Teams = append(s.result.Teams, *s.current)
		s.current = nil
	}
}

// Parse never fails: anything it cannot understand is either ignored as
// commentary or reported in the result's Errors.
func (p *Parser) Parse(text string) *ParsedTrade {
	result := &ParsedTrade{
		Teams:  []Section{},
		Errors: []string{},
	}

	if strings.TrimSpace(text) == "" {
		result.Errors = append(result.Errors, "Trade text is empty")
		result.IsValid = result.Valid()
		return result
	}

	state := &parseState{result: result}
	for _, line := range StripDecoration(text) {
		p.parseLine(state, line)
	}
	state.flush()

	p.validate(result)
	return result
}

func (p *Parser) parseLine(s *parseState, line string) {
	if m := headerRe.FindStringSubmatch(line); m != nil {
		raw := strings.TrimSpace(m[2])
		name, resolved := p.resolver.Resolve(raw)
		marked := m[1] != "" || m[3] != "" || m[4] != ""
		// "wonder what he sends" is chat, not a header.
		if resolved || marked {
			s.flush()
			section := &Section{
				RawTeam:  raw,
				Sends:    []PlayerLine{},
				Receives: []PlayerLine{},
			}
			if resolved {
				section.TeamName = &name
			} else {
				s.errorf("Could not resolve team %q", raw)
			}
			s.current = section
			s.inPlayers = true
			return
		}
	}

	if strings.HasPrefix(line, separator) {
		s.inPlayers = false
		return
	}

	if s.current == nil {
		return
	}

	if m := totalsRe.FindStringSubmatch(line); m != nil {
		nums, ok := atoiAll(m[1:])
		if !ok {
			s.errorf("Could not parse totals: %q", line)
			return
		}
		s.current.SendsTotalRating, s.current.SendsTotalBadges = nums[0], nums[1]
		s.current.ReceivesTotalRating, s.current.ReceivesTotalBadges = nums[2], nums[3]
		s.current.HasDeclaredTotals = true
		return
	}

	if m := singleTotalRe.FindStringSubmatch(line); m != nil {
		nums, ok := atoiAll(m[1:])
		if !ok {
			s.errorf("Could not parse totals: %q", line)
			return
		}
		s.current.SendsTotalRating, s.current.SendsTotalBadges = nums[0], nums[1]
		s.current.HasDeclaredTotals = true
		s.inPlayers = false
		return
	}

	if !s.inPlayers {
		return
	}

	if left, right, dual := strings.Cut(line, "/"); dual {
		p.parseDualLine(s, strings.TrimSpace(left), strings.TrimSpace(right))
		return
	}

	if player, ok := parsePlayer(line); ok {
		s.current.Sends = append(s.current.Sends, player)
	} else if entryHintRe.MatchString(line) {
		s.errorf("Could not parse sends player: %q", line)
	}
}

// parseDualLine handles "Sent Player R (B) / Received Player R (B)". Lines
// where neither side resembles an entry are commentary and ignored. An empty
// side is allowed; a non-empty side that fails the grammar is reported while
// the other side is still kept.
func (p *Parser) parseDualLine(s *parseState, left, right string) {
	if !entryHintRe.MatchString(left) && !entryHintRe.MatchString(right) {
		return
	}

	if player, ok := parsePlayer(left); ok {
		s.current.Sends = append(s.current.Sends, player)
	} else if left != "" {
		s.errorf("Could not parse sends player: %q", left)
	}

	if player, ok := parsePlayer(right); ok {
		s.current.Receives = append(s.current.Receives, player)
	} else if right != "" {
		s.errorf("Could not parse receives player: %q", right)
	}
}

func parsePlayer(fragment string) (PlayerLine, bool) {
	m := playerRe.FindStringSubmatch(strings.TrimSpace(fragment))
	if m == nil {
		return PlayerLine{}, false
	}

	name := strings.Join(strings.Fields(m[1]), " ")
	if !validPlayerName(name) {
		return PlayerLine{}, false
	}

	nums, ok := atoiAll(m[2:])
	if !ok {
		return PlayerLine{}, false
	}

	return PlayerLine{Name: name, Rating: nums[0], Badges: nums[1]}, true
}

func validPlayerName(name string) bool {
	if name == "" || name == separator {
		return false
	}
	if _, err := strconv.Atoi(name); err == nil {
		return false
	}
	return true
}

func atoiAll(ss []string) ([]int, bool) {
	out := make([]int, len(ss))
	for i, s := range ss {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}
