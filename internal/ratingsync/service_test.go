package ratingsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/tradedesk/internal/store"
)

type memRunStore struct {
	mu   sync.Mutex
	runs []*Run
}

func (m *memRunStore) CreateRun(_ context.Context, run *Run) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cpy := *run
	cpy.RunID = int64(len(m.runs) + 1)
	cpy.CreatedAt = time.Now()
	m.runs = append(m.runs, &cpy)
	out := cpy
	return &out, nil
}

func (m *memRunStore) find(id int64) *Run {
	for _, r := range m.runs {
		if r.RunID == id {
			return r
		}
	}
	return nil
}

func (m *memRunStore) UpdateStatus(_ context.Context, id int64, status RunStatus, msg string, lastErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.find(id)
	r.Status = status
	r.StatusMessage.String, r.StatusMessage.Valid = msg, true
	if lastErr != nil {
		r.LastError.String, r.LastError.Valid = lastErr.Error(), true
	}
	return nil
}

func (m *memRunStore) UpdateProgress(_ context.Context, id int64, current, total int, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.find(id)
	r.ProgressCurrent, r.ProgressTotal = current, total
	r.StatusMessage.String, r.StatusMessage.Valid = msg, true
	return nil
}

func (m *memRunStore) RecordSummary(_ context.Context, id int64, s *Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.find(id)
	r.ExactCount, r.AliasCount, r.FuzzyCount = s.Exact, s.Alias, s.Fuzzy
	r.UnmatchedCount, r.UpdatedCount = s.Unmatched, s.Updated
	return nil
}

func (m *memRunStore) ResetStuckRuns(context.Context) error { return nil }

func (m *memRunStore) MarkNextRunRunning(context.Context) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.Status == RunStatusQueued {
			r.Status = RunStatusRunning
			out := *r
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memRunStore) GetActiveRun(context.Context) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.Status == RunStatusRunning {
			out := *r
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memRunStore) ListRecentRuns(_ context.Context, limit int) ([]*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Run
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		cpy := *m.runs[i]
		out = append(out, &cpy)
	}
	return out, nil
}

type fakePublisher struct {
	mu   sync.Mutex
	runs []string
}

func (f *fakePublisher) PublishRatingsSynced(_ context.Context, runID string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, runID)
	return nil
}

func TestEnqueueValidatesRequest(t *testing.T) {
	logger, _ := test.NewNullLogger()
	svc := NewService(&memRunStore{}, nil, 70, nil, logger)
	ctx := context.Background()

	run, err := svc.Enqueue(ctx, Request{Teams: []string{"philly", "Denver"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sixers", "Nuggets"}, []string(run.Teams))
	assert.Equal(t, 70, run.RatingFloor)
	assert.Equal(t, 2, run.ProgressTotal)

	all, err := svc.Enqueue(ctx, Request{})
	require.NoError(t, err)
	assert.Empty(t, all.Teams)
	assert.Equal(t, 29, all.ProgressTotal)

	floor := 75
	custom, err := svc.Enqueue(ctx, Request{Floor: &floor, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 75, custom.RatingFloor)
	assert.True(t, custom.DryRun)

	_, err = svc.Enqueue(ctx, Request{Teams: []string{"Gotham"}})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	_, err = svc.Enqueue(ctx, Request{Teams: []string{"Free Agents"}})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	bad := 150
	_, err = svc.Enqueue(ctx, Request{Floor: &bad})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestServiceWorkerCompletesRuns(t *testing.T) {
	source, roster, writer := newFakes()
	logger, _ := test.NewNullLogger()
	runs := &memRunStore{}
	pub := &fakePublisher{}

	svc := NewService(runs, NewRunner(source, roster, writer, logger), 70, pub, logger)
	svc.pollInterval = 10 * time.Millisecond

	ctx := context.Background()
	queued, err := svc.Enqueue(ctx, Request{Teams: []string{"Sixers", "Nuggets"}})
	require.NoError(t, err)

	svc.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		require.NoError(t, svc.Shutdown(shutdownCtx))
	}()

	require.Eventually(t, func() bool {
		status, err := svc.GetStatus(ctx)
		return err == nil && len(status.History) == 1 && status.History[0].Status == RunStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	status, err := svc.GetStatus(ctx)
	require.NoError(t, err)
	assert.Nil(t, status.ActiveRun)

	done := status.History[0]
	assert.Equal(t, queued.RunID, done.RunID)
	assert.Equal(t, 3, done.UpdatedCount)
	assert.Equal(t, 1, done.UnmatchedCount)
	assert.Equal(t, 2, done.ProgressCurrent)

	require.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.runs) == 1 && pub.runs[0] == "1"
	}, time.Second, 10*time.Millisecond)
}

func TestServiceWorkerRecordsFailure(t *testing.T) {
	source, roster, writer := newFakes()
	source.fail["Sixers"] = assert.AnError
	logger, _ := test.NewNullLogger()
	runs := &memRunStore{}

	svc := NewService(runs, NewRunner(source, roster, writer, logger), 70, nil, logger)
	svc.pollInterval = 10 * time.Millisecond

	_, err := svc.Enqueue(context.Background(), Request{Teams: []string{"Sixers"}})
	require.NoError(t, err)

	svc.Start()
	defer func() { _ = svc.Shutdown(context.Background()) }()

	require.Eventually(t, func() bool {
		runs.mu.Lock()
		defer runs.mu.Unlock()
		return runs.runs[0].Status == RunStatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	runs.mu.Lock()
	defer runs.mu.Unlock()
	assert.Contains(t, runs.runs[0].LastError.String, ErrAllTeamsFailed.Error())
}
