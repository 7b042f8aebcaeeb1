package ratingsync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/tradedesk/internal/store"
)

// Repository handles persistence for rating sync runs.
type Repository struct {
	db *store.Database
}

// NewRepository constructs a Repository.
func NewRepository(db *store.Database) *Repository {
	return &Repository{db: db}
}

const runColumns = `run_id, teams, rating_floor, dry_run, status, status_message,
	progress_current, progress_total, exact_count, alias_count, fuzzy_count,
	unmatched_count, updated_count, last_error, created_at, updated_at,
	started_at, completed_at`

// CreateRun inserts a new run row and returns the stored record.
func (r *Repository) CreateRun(ctx context.Context, run *Run) (*Run, error) {
	query := `
		INSERT INTO rating_sync_runs (teams, rating_floor, dry_run, status, status_message, progress_total)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING ` + runColumns

	row := r.db.DB().QueryRowContext(ctx, query,
		run.Teams, run.RatingFloor, run.DryRun, string(run.Status), run.StatusMessage, run.ProgressTotal,
	)

	stored, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return stored, nil
}

// UpdateStatus updates status, message and optional error.
func (r *Repository) UpdateStatus(ctx context.Context, runID int64, status RunStatus, message string, lastErr error) error {
	query := `
		UPDATE rating_sync_runs
		SET status = $2::varchar,
			status_message = $3,
			last_error = $4,
			updated_at = NOW(),
			completed_at = CASE WHEN $2::varchar IN ('completed','failed') THEN NOW() ELSE completed_at END
		WHERE run_id = $1
	`

	var errText sql.NullString
	if lastErr != nil {
		errText = sql.NullString{String: lastErr.Error(), Valid: true}
	}

	if _, err := r.db.DB().ExecContext(ctx, query, runID, string(status), message, errText); err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	return nil
}

// UpdateProgress updates the progress counters and message.
func (r *Repository) UpdateProgress(ctx context.Context, runID int64, current, total int, message string) error {
	query := `
		UPDATE rating_sync_runs
		SET progress_current = $2,
			progress_total = $3,
			status_message = $4,
			updated_at = NOW()
		WHERE run_id = $1
	`

	if _, err := r.db.DB().ExecContext(ctx, query, runID, current, total, message); err != nil {
		return fmt.Errorf("update run progress: %w", err)
	}
	return nil
}

// RecordSummary stores the match counters of a finished run.
func (r *Repository) RecordSummary(ctx context.Context, runID int64, s *Summary) error {
	query := `
		UPDATE rating_sync_runs
		SET exact_count = $2,
			alias_count = $3,
			fuzzy_count = $4,
			unmatched_count = $5,
			updated_count = $6,
			updated_at = NOW()
		WHERE run_id = $1
	`

	_, err := r.db.DB().ExecContext(ctx, query, runID, s.Exact, s.Alias, s.Fuzzy, s.Unmatched, s.Updated)
	if err != nil {
		return fmt.Errorf("record run summary: %w", err)
	}
	return nil
}

// ResetStuckRuns moves running runs back to queued (used during service restarts).
func (r *Repository) ResetStuckRuns(ctx context.Context) error {
	_, err := r.db.DB().ExecContext(ctx, `
		UPDATE rating_sync_runs
		SET status = 'queued',
			status_message = 'Reset after service restart',
			updated_at = NOW()
		WHERE status = 'running'
	`)
	if err != nil {
		return fmt.Errorf("reset stuck runs: %w", err)
	}
	return nil
}

// MarkNextRunRunning atomically claims the next queued run.
func (r *Repository) MarkNextRunRunning(ctx context.Context) (*Run, error) {
	query := `
		WITH next_run AS (
			SELECT run_id
			FROM rating_sync_runs
			WHERE status = 'queued'
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE rating_sync_runs r
		SET status = 'running',
			status_message = 'Starting run...',
			started_at = COALESCE(r.started_at, NOW()),
			updated_at = NOW()
		FROM next_run
		WHERE r.run_id = next_run.run_id
		RETURNING r.run_id, r.teams, r.rating_floor, r.dry_run, r.status, r.status_message,
			r.progress_current, r.progress_total, r.exact_count, r.alias_count, r.fuzzy_count,
			r.unmatched_count, r.updated_count, r.last_error, r.created_at, r.updated_at,
			r.started_at, r.completed_at
	`

	run, err := scanRun(r.db.DB().QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim run: %w", err)
	}
	return run, nil
}

// GetActiveRun returns the currently running run, if any.
func (r *Repository) GetActiveRun(ctx context.Context) (*Run, error) {
	query := `SELECT ` + runColumns + `
		FROM rating_sync_runs
		WHERE status = 'running'
		ORDER BY started_at DESC
		LIMIT 1`

	run, err := scanRun(r.db.DB().QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active run: %w", err)
	}
	return run, nil
}

// ListRecentRuns returns the most recent runs, newest first.
func (r *Repository) ListRecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + `
		FROM rating_sync_runs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func scanRun(scanner interface {
	Scan(dest ...interface{}) error
}) (*Run, error) {
	run := &Run{}
	err := scanner.Scan(
		&run.RunID,
		&run.Teams,
		&run.RatingFloor,
		&run.DryRun,
		&run.Status,
		&run.StatusMessage,
		&run.ProgressCurrent,
		&run.ProgressTotal,
		&run.ExactCount,
		&run.AliasCount,
		&run.FuzzyCount,
		&run.UnmatchedCount,
		&run.UpdatedCount,
		&run.LastError,
		&run.CreatedAt,
		&run.UpdatedAt,
		&run.StartedAt,
		&run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}
