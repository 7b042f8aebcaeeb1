package ratingsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/tradedesk/internal/reconciliation"
	"github.com/fortuna/tradedesk/internal/teams"
)

// RatingSource fetches external ratings for a franchise.
type RatingSource interface {
	FetchTeam(ctx context.Context, team teams.Name) ([]reconciliation.ExternalRating, error)
}

// Roster supplies the authoritative players and the alias-aware matcher.
type Roster interface {
	Roster(ctx context.Context) ([]reconciliation.PlayerRecord, error)
	Matcher(ctx context.Context) (*reconciliation.Matcher, error)
	Invalidate(ctx context.Context) error
}

// RatingWriter persists a new rating for a roster player.
type RatingWriter interface {
	UpdateRating(ctx context.Context, playerID int, rating int) error
}

// ErrAllTeamsFailed is returned when no team page could be fetched.
var ErrAllTeamsFailed = errors.New("every team fetch failed")

// Runner executes sync specs sequentially, one team at a time.
type Runner struct {
	source RatingSource
	roster Roster
	writer RatingWriter
	logger logrus.FieldLogger
}

// NewRunner constructs a runner.
func NewRunner(source RatingSource, roster Roster, writer RatingWriter, logger logrus.FieldLogger) *Runner {
	return &Runner{
		source: source,
		roster: roster,
		writer: writer,
		logger: logger,
	}
}

// Run executes the spec, reporting progress via the Reporter if provided.
// A failed team fetch is reported and skipped; the run fails only if every
// team failed or a write failed.
func (r *Runner) Run(ctx context.Context, spec Spec, reporter Reporter) (*Summary, error) {
	if reporter == nil {
		reporter = nopReporter{}
	}
	if len(spec.Teams) == 0 {
		spec.Teams = teams.Franchises()
	}
	reporter.OnRunStart(spec)

	roster, err := r.roster.Roster(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}
	matcher, err := r.roster.Matcher(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading player aliases: %w", err)
	}
	engine := reconciliation.NewEngine(matcher, spec.Floor, r.logger)

	summary := &Summary{Teams: len(spec.Teams), DryRun: spec.DryRun}
	total := len(spec.Teams)

	for idx, team := range spec.Teams {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		reporter.OnTeamStart(team, idx, total)

		external, err := r.source.FetchTeam(ctx, team)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			r.logger.WithError(err).WithField("team", team).Warn("fetching team ratings failed")
			summary.FailedTeams = append(summary.FailedTeams, string(team))
			reporter.OnTeamError(team, err)
			continue
		}
		summary.Fetched += len(external)

		changed := 0
		for _, u := range engine.ReconcileRatings(external, roster) {
			if !u.Match.Matched() {
				summary.UnmatchedNames = append(summary.UnmatchedNames, u.External.Name)
				continue
			}
			if !u.Changed() {
				continue
			}

			if !spec.DryRun {
				if err := r.writer.UpdateRating(ctx, u.Match.Record.ID, u.NewRating); err != nil {
					return summary, fmt.Errorf("updating rating for %s: %w", u.Match.Record.CanonicalName, err)
				}
				summary.Updated++
			}
			changed++
			summary.Changes = append(summary.Changes, Change{
				PlayerID:  u.Match.Record.ID,
				Name:      u.Match.Record.CanonicalName,
				Source:    u.External.Name,
				MatchType: u.Match.MatchType,
				Score:     u.Match.Score,
				OldRating: u.OldRating,
				NewRating: u.NewRating,
			})
		}

		reporter.OnTeamDone(team, len(external), changed)
	}

	m := engine.GetMetrics()
	summary.Exact = m.Exact
	summary.Alias = m.Alias
	summary.Fuzzy = m.Fuzzy
	summary.Unmatched = m.Unmatched
	summary.FloorApplied = m.FloorApplied

	if summary.Updated > 0 {
		if err := r.roster.Invalidate(ctx); err != nil {
			r.logger.WithError(err).Warn("roster cache invalidation failed")
		}
	}

	if len(summary.FailedTeams) == total {
		return summary, ErrAllTeamsFailed
	}

	reporter.OnRunComplete(summary)
	return summary, nil
}

type nopReporter struct{}

func (nopReporter) OnRunStart(Spec) {}
func (nopReporter) OnTeamStart(teams.Name, int, int) {}
func (nopReporter) OnTeamDone(teams.Name, int, int) {}
func (nopReporter) OnTeamError(teams.Name, error) {}
func (nopReporter) OnRunComplete(*Summary) {}
