package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/tradedesk/internal/reconciliation"
	"github.com/fortuna/tradedesk/internal/store"
	"github.com/fortuna/tradedesk/internal/teams"
)

func TestRosterIsCachedUntilInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.roster.Roster(ctx)
	require.NoError(t, err)
	require.Len(t, first, 4)
	assert.Equal(t, teams.Nuggets, first[2].Team)

	_, err = f.roster.Roster(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.players.calls)

	require.NoError(t, f.roster.Invalidate(ctx))
	_, err = f.roster.Roster(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.players.calls)
}

func TestReconcileLearnsFuzzyMatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.roster.Reconcile(ctx, "Nikola Jokic")
	require.NoError(t, err)
	assert.Equal(t, reconciliation.MatchFuzzy, first.MatchType)
	assert.GreaterOrEqual(t, first.Score, reconciliation.FuzzyThreshold)
	assert.Equal(t, "Nikola Jokić", f.playerAliases.learned["Nikola Jokic"])

	second, err := f.roster.Reconcile(ctx, "nikola jokic")
	require.NoError(t, err)
	assert.Equal(t, reconciliation.MatchAlias, second.MatchType)
	assert.Equal(t, 3, second.Record.ID)
}

func TestReconcileExactAndUnmatched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	exact, err := f.roster.Reconcile(ctx, "joel  EMBIID")
	require.NoError(t, err)
	assert.Equal(t, reconciliation.MatchExact, exact.MatchType)

	miss, err := f.roster.Reconcile(ctx, "Zaza Pachulia")
	require.NoError(t, err)
	assert.Equal(t, reconciliation.MatchUnmatched, miss.MatchType)
	assert.Nil(t, miss.Record)
	assert.Empty(t, f.playerAliases.learned)
}

func TestAddTeamAlias(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, ok := mustResolver(t, f).Resolve("The Process")
	require.False(t, ok)

	row, err := f.roster.AddTeamAlias(ctx, "The Process", "Sixers", "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", row.CreatedBy.String)

	got, ok := mustResolver(t, f).Resolve("the process")
	require.True(t, ok)
	assert.Equal(t, teams.Sixers, got)

	stored, err := f.roster.TeamAliases(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestAddTeamAliasRejectsConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		alias     string
		canonical string
	}{
		{"unknown team", "seattle", "Sonics"},
		{"shadows a canonical name", "lakers", "Knicks"},
		{"remaps a built-in alias", "philly", "Knicks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.roster.AddTeamAlias(ctx, tt.alias, tt.canonical, "")
			require.ErrorIs(t, err, store.ErrInvalidInput)
		})
	}
	assert.Empty(t, f.teamAliases.rows)
}

func mustResolver(t *testing.T, f *fixture) *teams.Resolver {
	t.Helper()
	r, err := f.roster.Resolver(context.Background())
	require.NoError(t, err)
	return r
}
