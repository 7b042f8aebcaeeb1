package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/tradedesk/internal/guard"
	"github.com/fortuna/tradedesk/internal/lease"
	"github.com/fortuna/tradedesk/internal/store"
	"github.com/fortuna/tradedesk/internal/teams"
)

func TestPostgres(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	t.Run("migrations are idempotent", func(t *testing.T) {
		require.NoError(t, db.RunMigrations(context.Background()))
	})
	t.Run("players", func(t *testing.T) { testPlayerRepository(t, db) })
	t.Run("team aliases", func(t *testing.T) { testTeamAliasRepository(t, db) })
	t.Run("player aliases", func(t *testing.T) { testPlayerAliasRepository(t, db) })
	t.Run("events", func(t *testing.T) { testEventRepository(t, db) })
	t.Run("leases", func(t *testing.T) { testLeaseRepository(t, db) })
	t.Run("trades", func(t *testing.T) { testTradeRepository(t, db) })
}

func testPlayerRepository(t *testing.T, db *store.Database) {
	ctx := context.Background()
	repo := NewPlayerRepository(db)

	lebron := &store.Player{
		Name:       "LeBron James",
		Team:       sql.NullString{String: string(teams.Lakers), Valid: true},
		Rating:     94,
		Badges:     22,
		ExternalID: sql.NullString{String: "2k-lebron", Valid: true},
	}
	require.NoError(t, repo.Create(ctx, lebron))
	assert.NotZero(t, lebron.PlayerID)

	dup := *lebron
	assert.ErrorIs(t, repo.Create(ctx, &dup), store.ErrDuplicateKey)

	fa := &store.Player{Name: "Mohamed Bamba", Rating: 71}
	require.NoError(t, repo.Create(ctx, fa))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "LeBron James", all[0].Name)

	lakers, err := repo.GetByTeam(ctx, string(teams.Lakers))
	require.NoError(t, err)
	require.Len(t, lakers, 1)

	require.NoError(t, repo.UpdateRating(ctx, lebron.PlayerID, 95))
	got, err := repo.GetByID(ctx, lebron.PlayerID)
	require.NoError(t, err)
	assert.Equal(t, 95, got.Rating)

	assert.ErrorIs(t, repo.UpdateRating(ctx, 999999, 80), store.ErrNotFound)
	_, err = repo.GetByID(ctx, 999999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testTeamAliasRepository(t *testing.T, db *store.Database) {
	ctx := context.Background()
	repo := NewTeamAliasRepository(db)

	row := &store.TeamAlias{Alias: "The Process", CanonicalName: string(teams.Sixers)}
	require.NoError(t, repo.Create(ctx, row))
	assert.Equal(t, "the process", row.Alias)

	assert.ErrorIs(t, repo.Create(ctx, &store.TeamAlias{Alias: "the  PROCESS", CanonicalName: string(teams.Sixers)}), store.ErrDuplicateKey)
	assert.ErrorIs(t, repo.Create(ctx, &store.TeamAlias{Alias: "clips", CanonicalName: "Clippers"}), store.ErrInvalidInput)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	r, err := teams.NewResolver(teams.DefaultAliases, Table(all))
	require.NoError(t, err)
	got, ok := r.Resolve("the process")
	assert.True(t, ok)
	assert.Equal(t, teams.Sixers, got)

	_, err = repo.GetByAlias(ctx, "The Process")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "The Process"))
	assert.ErrorIs(t, repo.Delete(ctx, "The Process"), store.ErrNotFound)
}

func testPlayerAliasRepository(t *testing.T, db *store.Database) {
	ctx := context.Background()
	repo := NewPlayerAliasRepository(db)

	require.NoError(t, repo.Learn(ctx, "Jokic", "Nikola Jokić"))
	require.NoError(t, repo.Learn(ctx, "jokic", "Nikola Jokić"))
	require.NoError(t, repo.Learn(ctx, "Wemby", "Victor Wembanyama"))
	assert.ErrorIs(t, repo.Learn(ctx, " ", "x"), store.ErrInvalidInput)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "jokic", all[0].Alias)
	assert.Equal(t, 2, all[0].UseCount)
}

func testEventRepository(t *testing.T, db *store.Database) {
	ctx := context.Background()
	repo := NewEventRepository(db)

	rec := guard.Record{ExternalID: "msg-pg-1", ProcessedAt: time.Now().UTC()}
	require.NoError(t, repo.Insert(ctx, rec))
	assert.ErrorIs(t, repo.Insert(ctx, rec), store.ErrDuplicateKey)

	got, err := repo.Get(ctx, "msg-pg-1")
	require.NoError(t, err)
	assert.Equal(t, "msg-pg-1", got.ExternalID)

	require.NoError(t, repo.Delete(ctx, "msg-pg-1"))
	_, err = repo.Get(ctx, "msg-pg-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	logger, _ := test.NewNullLogger()
	g := guard.New(repo, logger)

	var calls atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.TryProcess(ctx, "msg-123", func(context.Context) error {
				calls.Add(1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func testLeaseRepository(t *testing.T, db *store.Database) {
	ctx := context.Background()
	repo := NewLeaseRepository(db)

	ok, err := repo.TryAcquire(ctx, "scheduler", "a", 500*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TryAcquire(ctx, "scheduler", "b", 500*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Renew(ctx, "scheduler", "b", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Renew(ctx, "scheduler", "a", 500*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(700 * time.Millisecond)
	ok, err = repo.TryAcquire(ctx, "scheduler", "b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired lease is reclaimable")

	current, err := repo.Get(ctx, "scheduler")
	require.NoError(t, err)
	assert.Equal(t, "b", current.Owner)

	require.NoError(t, repo.Release(ctx, "scheduler", "a"))
	current, err = repo.Get(ctx, "scheduler")
	require.NoError(t, err)
	assert.Equal(t, "b", current.Owner, "release by non-owner is a no-op")

	logger, _ := test.NewNullLogger()
	m := lease.NewManagerWithOwner(repo, "scheduler", "b", time.Minute, logger)
	ok, err = m.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, m.Release(ctx))

	_, err = repo.Get(ctx, "scheduler")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testTradeRepository(t *testing.T, db *store.Database) {
	ctx := context.Background()
	repo := NewTradeRepository(db)

	parsed, _ := json.Marshal(map[string]any{"isValid": true})
	rec := &store.TradeRecord{
		MessageID:  "msg-trade-1",
		RawText:    "**Sixers Sends/Receives**",
		Parsed:     parsed,
		Teams:      []string{"Sixers", "Knicks"},
		IsValid:    true,
		ErrorCount: 0,
	}
	require.NoError(t, repo.Insert(ctx, rec))
	assert.False(t, rec.CreatedAt.IsZero())
	assert.ErrorIs(t, repo.Insert(ctx, rec), store.ErrDuplicateKey)

	got, err := repo.GetByMessageID(ctx, "msg-trade-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sixers", "Knicks"}, got.Teams)
	assert.JSONEq(t, string(parsed), string(got.Parsed))

	recent, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	_, err = repo.GetByMessageID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
