// Package scheduler queues the daily rating sync.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/tradedesk/internal/ratingsync"
)

// Enqueuer queues rating sync runs. *ratingsync.Service implements it.
type Enqueuer interface {
	Enqueue(ctx context.Context, req ratingsync.Request) (*ratingsync.Run, error)
}

// Orchestrator manages scheduled tasks
type Orchestrator struct {
	syncer Enqueuer
	config *Config
	logger logrus.FieldLogger
	now    func() time.Time

	cancel context.CancelFunc

	mu      sync.Mutex
	nextRun time.Time
	lastRun *ratingsync.Run
	lastErr error
}

// Config holds scheduler configuration
type Config struct {
	SyncHour         int           // Default: 4 (4 AM local)
	EnableRatingSync bool          // Default: true
	SyncTeams        []string      // Empty means every franchise
	DryRun           bool          // Default: false
	MaxRetries       int           // Default: 3
	RetryDelay       time.Duration // Default: 5s
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		SyncHour:         4,
		EnableRatingSync: true,
		MaxRetries:       3,
		RetryDelay:       5 * time.Second,
	}
}

// NewOrchestrator creates a new scheduler orchestrator
func NewOrchestrator(enqueuer Enqueuer, config *Config, logger logrus.FieldLogger) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}

	return &Orchestrator{
		syncer: enqueuer,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Start runs scheduled tasks until ctx is cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	o.logger.WithFields(logrus.Fields{
		"rating_sync": o.config.EnableRatingSync,
		"sync_hour":   o.config.SyncHour,
		"dry_run":     o.config.DryRun,
	}).Info("Scheduler orchestrator starting")

	ctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()

	if !o.config.EnableRatingSync {
		<-ctx.Done()
		return
	}

	o.runDailySync(ctx)
	o.logger.Info("Scheduler orchestrator stopping...")
}

// runDailySync enqueues one rating sync per day at SyncHour
func (o *Orchestrator) runDailySync(ctx context.Context) {
	for {
		now := o.now()
		next := NextRun(now, o.config.SyncHour)

		o.mu.Lock()
		o.nextRun = next
		o.mu.Unlock()

		wait := next.Sub(now)
		o.logger.WithField("next_run", next.Format("2006-01-02 15:04:05")).Infof("Next rating sync in %v", wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			o.logger.Info("→ Daily rating sync stopped")
			return
		case <-timer.C:
			o.enqueueWithRetry(ctx)
		}
	}
}

// NextRun returns the next occurrence of hour:00 strictly after now.
func NextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (o *Orchestrator) enqueueWithRetry(ctx context.Context) {
	req := ratingsync.Request{Teams: o.config.SyncTeams, DryRun: o.config.DryRun}

	var (
		run *ratingsync.Run
		err error
	)
	for attempt := 1; attempt <= o.config.MaxRetries; attempt++ {
		run, err = o.syncer.Enqueue(ctx, req)
		if err == nil {
			break
		}

		o.logger.WithError(err).Warnf("Enqueue attempt %d/%d failed", attempt, o.config.MaxRetries)
		if attempt < o.config.MaxRetries {
			select {
			case <-ctx.Done():
				return
			case <-time.After(o.config.RetryDelay):
			}
		}
	}

	o.mu.Lock()
	o.lastRun, o.lastErr = run, err
	o.mu.Unlock()

	if err != nil {
		o.logger.WithError(err).Error("❌ Daily rating sync not queued")
		return
	}
	o.logger.WithField("run_id", run.RunID).Info("✓ Daily rating sync queued")
}

// Stop gracefully stops the scheduler
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	o.logger.Info("✓ Scheduler orchestrator stopped")
}

// TriggerManualSync queues a rating sync immediately
func (o *Orchestrator) TriggerManualSync(ctx context.Context, req ratingsync.Request) (*ratingsync.Run, error) {
	run, err := o.syncer.Enqueue(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("queue manual sync: %w", err)
	}
	o.logger.WithField("run_id", run.RunID).Info("Manual rating sync queued")
	return run, nil
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	o.mu.Lock()
	defer o.mu.Unlock()

	status := map[string]interface{}{
		"rating_sync_enabled": o.config.EnableRatingSync,
		"sync_hour":           o.config.SyncHour,
		"dry_run":             o.config.DryRun,
	}
	if !o.nextRun.IsZero() {
		status["next_run"] = o.nextRun
	}
	if o.lastRun != nil {
		status["last_run_id"] = o.lastRun.RunID
	}
	if o.lastErr != nil {
		status["last_error"] = o.lastErr.Error()
	}
	return status
}
