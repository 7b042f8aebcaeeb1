package ratingsync

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/tradedesk/internal/store"
	"github.com/fortuna/tradedesk/internal/teams"
)

// RunStore persists the run queue. *Repository implements it.
type RunStore interface {
	CreateRun(ctx context.Context, run *Run) (*Run, error)
	UpdateStatus(ctx context.Context, runID int64, status RunStatus, message string, lastErr error) error
	UpdateProgress(ctx context.Context, runID int64, current, total int, message string) error
	RecordSummary(ctx context.Context, runID int64, s *Summary) error
	ResetStuckRuns(ctx context.Context) error
	MarkNextRunRunning(ctx context.Context) (*Run, error)
	GetActiveRun(ctx context.Context) (*Run, error)
	ListRecentRuns(ctx context.Context, limit int) ([]*Run, error)
}

// Publisher announces finished runs.
type Publisher interface {
	PublishRatingsSynced(ctx context.Context, runID string, payload any) error
}

// Request represents a sync invocation request.
type Request struct {
	Teams  []string `json:"teams"`
	Floor  *int     `json:"floor,omitempty"`
	DryRun bool     `json:"dryRun"`
}

// Service coordinates run persistence, execution, and status reporting.
type Service struct {
	repo      RunStore
	runner    *Runner
	publisher Publisher
	floor     int

	historyLimit int
	pollInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger logrus.FieldLogger
}

// NewService constructs a Service. Call Start to launch the worker. publisher
// may be nil.
func NewService(repo RunStore, runner *Runner, defaultFloor int, publisher Publisher, logger logrus.FieldLogger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		repo:         repo,
		runner:       runner,
		publisher:    publisher,
		floor:        defaultFloor,
		historyLimit: 10,
		pollInterval: 3 * time.Second,
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
	}
}

// Start launches the background worker loop.
func (s *Service) Start() {
	if err := s.repo.ResetStuckRuns(s.ctx); err != nil {
		s.logger.WithError(err).Warn("failed to reset runs")
	}

	s.wg.Add(1)
	go s.worker()
}

// Shutdown stops workers and waits for completion.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue validates req and queues a run.
func (s *Service) Enqueue(ctx context.Context, req Request) (*Run, error) {
	resolved, err := ResolveTeams(req.Teams)
	if err != nil {
		return nil, err
	}

	floor := s.floor
	if req.Floor != nil {
		if *req.Floor < 0 || *req.Floor > 99 {
			return nil, fmt.Errorf("rating floor %d out of range: %w", *req.Floor, store.ErrInvalidInput)
		}
		floor = *req.Floor
	}

	names := make([]string, len(resolved))
	for i, t := range resolved {
		names[i] = string(t)
	}
	total := len(resolved)
	if total == 0 {
		total = len(teams.Franchises())
	}

	run := &Run{
		Teams:         names,
		RatingFloor:   floor,
		DryRun:        req.DryRun,
		Status:        RunStatusQueued,
		StatusMessage: sql.NullString{String: "Queued", Valid: true},
		ProgressTotal: total,
	}

	stored, err := s.repo.CreateRun(ctx, run)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"run_id": stored.RunID, "teams": total, "dry_run": req.DryRun}).Info("rating sync queued")
	return stored, nil
}

// ResolveTeams maps team spellings to franchises. Free Agents has no ratings
// page and is rejected.
func ResolveTeams(raw []string) ([]teams.Name, error) {
	out := make([]teams.Name, 0, len(raw))
	for _, r := range raw {
		team, ok := teams.Resolve(r)
		if !ok || team == teams.FreeAgents {
			return nil, fmt.Errorf("unknown team %q: %w", r, store.ErrInvalidInput)
		}
		out = append(out, team)
	}
	return out, nil
}

// GetStatus returns the currently running run plus recent history.
func (s *Service) GetStatus(ctx context.Context) (*StatusSummary, error) {
	active, err := s.repo.GetActiveRun(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListRecentRuns(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	return &StatusSummary{
		ActiveRun: active,
		History:   history,
	}, nil
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		run, err := s.repo.MarkNextRunRunning(s.ctx)
		if err != nil {
			s.logger.WithError(err).Error("claim run error")
		}
		if run == nil {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				continue
			}
		}

		s.executeRun(run)
	}
}

func (s *Service) executeRun(run *Run) {
	log := s.logger.WithField("run_id", run.RunID)
	spec := Spec{
		Floor:  run.RatingFloor,
		DryRun: run.DryRun,
	}
	for _, t := range run.Teams {
		spec.Teams = append(spec.Teams, teams.Name(t))
	}

	reporter := &runReporter{ctx: s.ctx, repo: s.repo, runID: run.RunID, total: run.ProgressTotal, logger: log}

	summary, err := s.runner.Run(s.ctx, spec, reporter)
	if summary != nil {
		if recErr := s.repo.RecordSummary(s.ctx, run.RunID, summary); recErr != nil {
			log.WithError(recErr).Warn("failed to record run summary")
		}
	}
	if err != nil {
		log.WithError(err).Error("rating sync failed")
		_ = s.repo.UpdateStatus(s.ctx, run.RunID, RunStatusFailed, "Run failed", err)
		return
	}

	_ = s.repo.UpdateStatus(s.ctx, run.RunID, RunStatusCompleted, "Run completed", nil)
	log.WithFields(logrus.Fields{
		"updated":   summary.Updated,
		"unmatched": summary.Unmatched,
	}).Info("✓ Rating sync completed")

	if s.publisher != nil {
		if err := s.publisher.PublishRatingsSynced(s.ctx, strconv.FormatInt(run.RunID, 10), summary); err != nil {
			log.WithError(err).Warn("failed to publish sync summary")
		}
	}
}

type runReporter struct {
	ctx    context.Context
	repo   RunStore
	runID  int64
	total  int
	logger logrus.FieldLogger
}

func (r *runReporter) OnRunStart(spec Spec) {
	r.total = len(spec.Teams)
	_ = r.repo.UpdateProgress(r.ctx, r.runID, 0, r.total, "Run starting")
}

func (r *runReporter) OnTeamStart(team teams.Name, index int, total int) {
	msg := fmt.Sprintf("Fetching %s (%d/%d)", team, index+1, total)
	_ = r.repo.UpdateProgress(r.ctx, r.runID, index, total, msg)
}

func (r *runReporter) OnTeamDone(team teams.Name, fetched int, changed int) {
	r.logger.WithFields(logrus.Fields{"team": team, "fetched": fetched, "changed": changed}).Debug("team synced")
}

func (r *runReporter) OnTeamError(team teams.Name, err error) {
	r.logger.WithError(err).WithField("team", team).Warn("team skipped")
}

func (r *runReporter) OnRunComplete(*Summary) {
	_ = r.repo.UpdateProgress(r.ctx, r.runID, r.total, r.total, "Run complete")
}
