package trade

import "fmt"

// validate appends structural errors and total mismatches to result and
// sets IsValid. It only ever adds findings.
func (p *Parser) validate(result *ParsedTrade) {
	if len(result.Teams) == 0 {
		result.Errors = append(result.Errors, "No teams found in trade text")
	}

	for i := range result.Teams {
		section := &result.Teams[i]

		if section.PlayerCount() == 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Team %q has no players", section.DisplayName()))
			continue
		}

		for _, msg := range totalMismatches(section) {
			if p.opts.StrictTotals {
				result.Errors = append(result.Errors, msg)
			} else {
				result.Warnings = append(result.Warnings, msg)
			}
		}
	}

	result.IsValid = result.Valid()
}

func totalMismatches(s *Section) []string {
	if !s.HasDeclaredTotals {
		return nil
	}

	var out []string
	rating, badges := s.ComputedSends()
	if rating != s.SendsTotalRating || badges != s.SendsTotalBadges {
		out = append(out, fmt.Sprintf("Team %q declares sends total %d (%d) but players add up to %d (%d)",
			s.DisplayName(), s.SendsTotalRating, s.SendsTotalBadges, rating, badges))
	}

	rating, badges = s.ComputedReceives()
	if rating != s.ReceivesTotalRating || badges != s.ReceivesTotalBadges {
		out = append(out, fmt.Sprintf("Team %q declares receives total %d (%d) but players add up to %d (%d)",
			s.DisplayName(), s.ReceivesTotalRating, s.ReceivesTotalBadges, rating, badges))
	}
	return out
}
