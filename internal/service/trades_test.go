package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/tradedesk/internal/reconciliation"
	"github.com/fortuna/tradedesk/internal/store"
	"github.com/fortuna/tradedesk/internal/teams"
	"github.com/fortuna/tradedesk/internal/trade"
)

const sixersTrade = `**Sixers Sends/Receives**
Ausar Thompson 82 (13)/ Jaden McDaniels 83 (15)
--
82 (13) / 83 (15)`

func TestApplyRecordsTradeOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.trades.Apply(ctx, "msg-123", sixersTrade)
	require.NoError(t, err)
	assert.True(t, first.Applied)
	assert.False(t, first.Duplicate)
	require.NotNil(t, first.AppliedAt)

	require.Len(t, first.Players, 2)
	for _, p := range first.Players {
		assert.Equal(t, reconciliation.MatchExact, p.Match.MatchType, p.Name)
	}

	second, err := f.trades.Apply(ctx, "msg-123", sixersTrade)
	require.NoError(t, err)
	assert.False(t, second.Applied)
	assert.True(t, second.Duplicate)

	assert.Equal(t, 1, f.ledger.len())
	assert.Equal(t, []string{"msg-123"}, f.notifier.events)

	rec, err := f.trades.Get(ctx, "msg-123")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sixers"}, rec.Teams)
	assert.True(t, rec.IsValid)

	var parsed trade.ParsedTrade
	require.NoError(t, json.Unmarshal(rec.Parsed, &parsed))
	require.Len(t, parsed.Teams, 1)
	assert.Equal(t, teams.Sixers, *parsed.Teams[0].TeamName)
}

func TestApplyConcurrentDeliveries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.trades.Apply(ctx, "msg-race", sixersTrade)
			if err != nil {
				t.Error(err)
				return
			}
			if res.Applied {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, applied)
	assert.Equal(t, 1, f.ledger.len())
}

func TestApplyInvalidTradeIsNotRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.trades.Apply(ctx, "msg-bad", "Gotham Sends / Receives:\nBruce Wayne 99 (40) / Dick Grayson 80 (10)")
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.False(t, res.Duplicate)
	assert.Contains(t, res.Trade.Errors, `Could not resolve team "Gotham"`)

	assert.Zero(t, f.ledger.len())
	assert.Zero(t, f.events.Len())

	_, err = f.trades.Get(ctx, "msg-bad")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyReleasesClaimWhenLedgerFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.ledger.err = errBoom
	_, err := f.trades.Apply(ctx, "msg-retry", sixersTrade)
	require.ErrorIs(t, err, errBoom)
	assert.Zero(t, f.events.Len())
	assert.Empty(t, f.notifier.events)

	f.ledger.err = nil
	res, err := f.trades.Apply(ctx, "msg-retry", sixersTrade)
	require.NoError(t, err)
	assert.True(t, res.Applied)
}

func TestApplyNotifierFailureDoesNotUndoTrade(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errBoom

	res, err := f.trades.Apply(context.Background(), "msg-1", sixersTrade)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, 1, f.events.Len())
}

func TestParseUsesStoredTeamAliases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	text := "The Process Sends / Receives:\nJoel Embiid 92 (30) / Nikola Jokic 97 (40)"

	before, err := f.trades.Parse(ctx, text)
	require.NoError(t, err)
	assert.False(t, before.IsValid)

	_, err = f.roster.AddTeamAlias(ctx, "the process", "Sixers", "")
	require.NoError(t, err)

	after, err := f.trades.Parse(ctx, text)
	require.NoError(t, err)
	require.True(t, after.IsValid, "errors: %v", after.Errors)
	assert.Equal(t, teams.Sixers, *after.Teams[0].TeamName)
}

func TestGetTeamRoster(t *testing.T) {
	f := newFixture(t)
	players := NewPlayerService(f.players, f.roster)

	got, err := players.GetTeamRoster(context.Background(), "philly")
	require.NoError(t, err)
	assert.Equal(t, teams.Sixers, got.Team)
	assert.Len(t, got.Players, 2)

	_, err = players.GetTeamRoster(context.Background(), "gotham")
	assert.ErrorIs(t, err, store.ErrNotFound)

	p, err := players.GetPlayer(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Nikola Jokić", p.Name)
}
