package reconciliation

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultRatingFloor is the lowest rating written back after a sync.
const DefaultRatingFloor = 70

// ExternalRating is a player rating as published by an outside source.
type ExternalRating struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"`
	Source string `json:"source,omitempty"`
}

// RatingUpdate pairs an external rating with its reconciled roster record.
// NewRating already has the floor applied.
type RatingUpdate struct {
	External  ExternalRating `json:"external"`
	Match     MatchResult    `json:"match"`
	OldRating int            `json:"oldRating"`
	NewRating int            `json:"newRating"`
}

// Changed reports whether applying the update would modify the roster.
func (u RatingUpdate) Changed() bool {
	return u.Match.Matched() && u.OldRating != u.NewRating
}

// Metrics tracks reconciliation statistics
type Metrics struct {
	TotalReconciliations int       `json:"totalReconciliations"`
	Exact                int       `json:"exact"`
	Alias                int       `json:"alias"`
	Fuzzy                int       `json:"fuzzy"`
	Unmatched            int       `json:"unmatched"`
	FloorApplied         int       `json:"floorApplied"`
	LastReconciliation   time.Time `json:"lastReconciliation"`
}

// Engine reconciles batches of external ratings against a roster and applies
// the rating floor to whatever matched.
type Engine struct {
	matcher *Matcher
	floor   int
	logger  logrus.FieldLogger

	mu      sync.Mutex
	metrics Metrics
}

// NewEngine creates a new reconciliation engine. A floor of zero or less
// disables flooring.
func NewEngine(matcher *Matcher, floor int, logger logrus.FieldLogger) *Engine {
	if matcher == nil {
		matcher = NewMatcher(DefaultPlayerAliases)
	}
	return &Engine{
		matcher: matcher,
		floor:   floor,
		logger:  logger,
	}
}

// Matcher returns the matcher the engine reconciles with.
func (e *Engine) Matcher() *Matcher {
	return e.matcher
}

// ReconcileRatings matches every external rating against roster, in input
// order. Unmatched entries are returned too so callers can report them.
func (e *Engine) ReconcileRatings(external []ExternalRating, roster []PlayerRecord) []RatingUpdate {
	updates := make([]RatingUpdate, 0, len(external))

	for _, ext := range external {
		match := e.matcher.Reconcile(ext.Name, roster)
		update := RatingUpdate{External: ext, Match: match}

		if match.Matched() {
			update.OldRating = match.Record.Rating
			update.NewRating = e.applyFloor(ext.Rating)
		}

		e.record(update)

		switch match.MatchType {
		case MatchFuzzy:
			e.logger.WithFields(logrus.Fields{
				"query": ext.Name,
				"match": match.Record.CanonicalName,
				"score": match.Score,
			}).Debug("fuzzy match")
		case MatchUnmatched:
			e.logger.WithFields(logrus.Fields{
				"query":      ext.Name,
				"best_score": match.Score,
			}).Debug("no roster match")
		}

		updates = append(updates, update)
	}

	return updates
}

func (e *Engine) applyFloor(rating int) int {
	if e.floor > 0 && rating < e.floor {
		return e.floor
	}
	return rating
}

func (e *Engine) record(u RatingUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.metrics.TotalReconciliations++
	e.metrics.LastReconciliation = time.Now()

	switch u.Match.MatchType {
	case MatchExact:
		e.metrics.Exact++
	case MatchAlias:
		e.metrics.Alias++
	case MatchFuzzy:
		e.metrics.Fuzzy++
	default:
		e.metrics.Unmatched++
	}
	if u.Match.Matched() && u.NewRating != u.External.Rating {
		e.metrics.FloorApplied++
	}
}

// GetMetrics returns a snapshot of reconciliation metrics
func (e *Engine) GetMetrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics
}
