package reconciliation

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileRatingsAppliesFloorAfterMatching(t *testing.T) {
	logger, _ := test.NewNullLogger()
	engine := NewEngine(NewMatcher(DefaultPlayerAliases), DefaultRatingFloor, logger)

	external := []ExternalRating{
		{Name: "LeBron James", Rating: 93},
		{Name: "Mo Bamba", Rating: 64},
		{Name: "Nikola Jokic", Rating: 98},
		{Name: "Nobody Special", Rating: 55},
	}

	updates := engine.ReconcileRatings(external, testRoster())
	require.Len(t, updates, 4)

	assert.Equal(t, MatchExact, updates[0].Match.MatchType)
	assert.Equal(t, 94, updates[0].OldRating)
	assert.Equal(t, 93, updates[0].NewRating)
	assert.True(t, updates[0].Changed())

	assert.Equal(t, MatchAlias, updates[1].Match.MatchType)
	assert.Equal(t, 70, updates[1].NewRating)
	assert.True(t, updates[1].Changed())

	assert.Equal(t, MatchFuzzy, updates[2].Match.MatchType)
	assert.Equal(t, 98, updates[2].NewRating)

	assert.Equal(t, MatchUnmatched, updates[3].Match.MatchType)
	assert.Equal(t, 0, updates[3].NewRating)
	assert.False(t, updates[3].Changed())

	metrics := engine.GetMetrics()
	assert.Equal(t, 4, metrics.TotalReconciliations)
	assert.Equal(t, 1, metrics.Exact)
	assert.Equal(t, 1, metrics.Alias)
	assert.Equal(t, 1, metrics.Fuzzy)
	assert.Equal(t, 1, metrics.Unmatched)
	assert.Equal(t, 1, metrics.FloorApplied)
}

func TestReconcileRatingsFloorDisabled(t *testing.T) {
	logger, _ := test.NewNullLogger()
	engine := NewEngine(nil, 0, logger)

	updates := engine.ReconcileRatings([]ExternalRating{{Name: "Mohamed Bamba", Rating: 60}}, testRoster())
	require.Len(t, updates, 1)
	assert.Equal(t, 60, updates[0].NewRating)
	assert.Equal(t, 0, engine.GetMetrics().FloorApplied)
}
