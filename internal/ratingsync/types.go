// Package ratingsync re-syncs roster ratings from an external ratings source.
package ratingsync

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/fortuna/tradedesk/internal/reconciliation"
	"github.com/fortuna/tradedesk/internal/teams"
)

// RunStatus represents the lifecycle state for a run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run models the database representation of a sync run.
type Run struct {
	RunID           int64          `json:"run_id"`
	Teams           pq.StringArray `json:"teams"`
	RatingFloor     int            `json:"rating_floor"`
	DryRun          bool           `json:"dry_run"`
	Status          RunStatus      `json:"status"`
	StatusMessage   sql.NullString `json:"status_message"`
	ProgressCurrent int            `json:"progress_current"`
	ProgressTotal   int            `json:"progress_total"`
	ExactCount      int            `json:"exact_count"`
	AliasCount      int            `json:"alias_count"`
	FuzzyCount      int            `json:"fuzzy_count"`
	UnmatchedCount  int            `json:"unmatched_count"`
	UpdatedCount    int            `json:"updated_count"`
	LastError       sql.NullString `json:"last_error"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	StartedAt       sql.NullTime   `json:"started_at"`
	CompletedAt     sql.NullTime   `json:"completed_at"`
}

// Spec describes the work to be performed by the runner. Empty Teams means
// every franchise.
type Spec struct {
	Teams  []teams.Name
	Floor  int
	DryRun bool
}

// Change is one rating that was (or in a dry run, would be) written.
type Change struct {
	PlayerID  int                      `json:"playerId"`
	Name      string                   `json:"name"`
	Source    string                   `json:"sourceName"`
	MatchType reconciliation.MatchType `json:"matchType"`
	Score     float64                  `json:"score"`
	OldRating int                      `json:"oldRating"`
	NewRating int                      `json:"newRating"`
}

// Summary is the outcome of one run.
type Summary struct {
	Teams        int      `json:"teams"`
	FailedTeams  []string `json:"failedTeams,omitempty"`
	Fetched      int      `json:"fetched"`
	Exact        int      `json:"exact"`
	Alias        int      `json:"alias"`
	Fuzzy        int      `json:"fuzzy"`
	Unmatched    int      `json:"unmatched"`
	FloorApplied int      `json:"floorApplied"`
	Updated      int      `json:"updated"`
	DryRun       bool     `json:"dryRun"`
	Changes      []Change `json:"changes,omitempty"`
	// UnmatchedNames lists external names with no roster match.
	UnmatchedNames []string `json:"unmatchedNames,omitempty"`
}

// Reporter receives lifecycle callbacks from the runner.
type Reporter interface {
	OnRunStart(spec Spec)
	OnTeamStart(team teams.Name, index int, total int)
	OnTeamDone(team teams.Name, fetched int, changed int)
	OnTeamError(team teams.Name, err error)
	OnRunComplete(summary *Summary)
}

// StatusSummary is returned to API callers.
type StatusSummary struct {
	ActiveRun *Run   `json:"active_run,omitempty"`
	History   []*Run `json:"recent_runs,omitempty"`
}
