package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/fortuna/tradedesk/internal/cache"
	"github.com/fortuna/tradedesk/internal/guard"
	"github.com/fortuna/tradedesk/internal/store"
	"github.com/fortuna/tradedesk/internal/trade"
)

type fakePlayers struct {
	mu      sync.Mutex
	players []*store.Player
	calls   int
}

func (f *fakePlayers) GetAll(context.Context) ([]*store.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.players, nil
}

func (f *fakePlayers) GetByID(_ context.Context, id int) (*store.Player, error) {
	for _, p := range f.players {
		if p.PlayerID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("player %d: %w", id, store.ErrNotFound)
}

func (f *fakePlayers) GetByTeam(_ context.Context, team string) ([]*store.Player, error) {
	var out []*store.Player
	for _, p := range f.players {
		if p.Team.String == team {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeTeamAliases struct {
	mu   sync.Mutex
	rows []*store.TeamAlias
}

func (f *fakeTeamAliases) GetAll(context.Context) ([]*store.TeamAlias, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*store.TeamAlias(nil), f.rows...), nil
}

func (f *fakeTeamAliases) Create(_ context.Context, a *store.TeamAlias) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = len(f.rows) + 1
	f.rows = append(f.rows, a)
	return nil
}

type fakePlayerAliases struct {
	mu      sync.Mutex
	learned map[string]string
}

func (f *fakePlayerAliases) GetAll(context.Context) ([]*store.PlayerAlias, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*store.PlayerAlias
	for alias, name := range f.learned {
		out = append(out, &store.PlayerAlias{Alias: alias, CanonicalName: name, UseCount: 1})
	}
	return out, nil
}

func (f *fakePlayerAliases) Learn(_ context.Context, alias, canonical string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.learned == nil {
		f.learned = map[string]string{}
	}
	f.learned[alias] = canonical
	return nil
}

type fakeLedger struct {
	mu   sync.Mutex
	rows map[string]*store.TradeRecord
	err  error
}

func (f *fakeLedger) Insert(_ context.Context, rec *store.TradeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.rows == nil {
		f.rows = map[string]*store.TradeRecord{}
	}
	if _, ok := f.rows[rec.MessageID]; ok {
		return store.ErrDuplicateKey
	}
	rec.CreatedAt = time.Now()
	f.rows[rec.MessageID] = rec
	return nil
}

func (f *fakeLedger) GetByMessageID(_ context.Context, id string) (*store.TradeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return rec, nil
}

func (f *fakeLedger) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (f *fakeNotifier) PublishTradeApplied(_ context.Context, messageID string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, messageID)
	return f.err
}

var errBoom = errors.New("boom")

func team(name string) sql.NullString {
	return sql.NullString{String: name, Valid: true}
}

func testRoster() []*store.Player {
	return []*store.Player{
		{PlayerID: 1, Name: "Ausar Thompson", Team: team("Sixers"), Rating: 82, Badges: 13},
		{PlayerID: 2, Name: "Jaden McDaniels", Team: team("Timberwolves"), Rating: 83, Badges: 15},
		{PlayerID: 3, Name: "Nikola Jokić", Team: team("Nuggets"), Rating: 97, Badges: 40},
		{PlayerID: 4, Name: "Joel Embiid", Team: team("Sixers"), Rating: 92, Badges: 30},
	}
}

type fixture struct {
	players       *fakePlayers
	teamAliases   *fakeTeamAliases
	playerAliases *fakePlayerAliases
	ledger        *fakeLedger
	notifier      *fakeNotifier
	events        *guard.MemoryStore
	roster        *RosterService
	trades        *TradeService
	logger        logrus.FieldLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()

	f := &fixture{
		players:       &fakePlayers{players: testRoster()},
		teamAliases:   &fakeTeamAliases{},
		playerAliases: &fakePlayerAliases{},
		ledger:        &fakeLedger{},
		notifier:      &fakeNotifier{},
		events:        guard.NewMemoryStore(),
		logger:        logger,
	}
	f.roster = NewRosterService(f.players, f.teamAliases, f.playerAliases, cache.NewMemory(), time.Minute, logger)
	f.trades = NewTradeService(f.roster, f.ledger, guard.New(f.events, logger), trade.Options{}, logger, f.notifier)
	return f
}
