package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/tradedesk/internal/cache"
	"github.com/fortuna/tradedesk/internal/reconciliation"
	"github.com/fortuna/tradedesk/internal/store"
	"github.com/fortuna/tradedesk/internal/store/repository"
	"github.com/fortuna/tradedesk/internal/teams"
)

const (
	rosterCacheKey        = "tradedesk:roster:v1"
	teamAliasCacheKey     = "tradedesk:team_aliases:v1"
	playerAliasCacheKey   = "tradedesk:player_aliases:v1"
	defaultRosterCacheTTL = 5 * time.Minute
)

// PlayerSource lists the authoritative roster.
type PlayerSource interface {
	GetAll(ctx context.Context) ([]*store.Player, error)
}

// TeamAliasStore persists admin-maintained team aliases.
type TeamAliasStore interface {
	GetAll(ctx context.Context) ([]*store.TeamAlias, error)
	Create(ctx context.Context, alias *store.TeamAlias) error
}

// PlayerAliasStore persists learned player aliases.
type PlayerAliasStore interface {
	GetAll(ctx context.Context) ([]*store.PlayerAlias, error)
	Learn(ctx context.Context, alias, canonicalName string) error
}

// RosterService serves the roster and alias tables to the parser and the
// reconciler, caching each behind an explicit TTL.
type RosterService struct {
	players       PlayerSource
	teamAliases   TeamAliasStore
	playerAliases PlayerAliasStore
	cache         cache.Cache
	ttl           time.Duration
	logger        logrus.FieldLogger
}

// NewRosterService creates a roster service. A non-positive ttl uses five
// minutes.
func NewRosterService(
	players PlayerSource,
	teamAliases TeamAliasStore,
	playerAliases PlayerAliasStore,
	c cache.Cache,
	ttl time.Duration,
	logger logrus.FieldLogger,
) *RosterService {
	if ttl <= 0 {
		ttl = defaultRosterCacheTTL
	}
	return &RosterService{
		players:       players,
		teamAliases:   teamAliases,
		playerAliases: playerAliases,
		cache:         c,
		ttl:           ttl,
		logger:        logger,
	}
}

// Roster returns the reconciliation view of every player.
func (s *RosterService) Roster(ctx context.Context) ([]reconciliation.PlayerRecord, error) {
	var roster []reconciliation.PlayerRecord
	if err := cache.GetJSON(ctx, s.cache, rosterCacheKey, &roster); err == nil {
		return roster, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.WithError(err).Warn("roster cache read failed")
	}

	players, err := s.players.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching roster: %w", err)
	}

	roster = make([]reconciliation.PlayerRecord, 0, len(players))
	for _, p := range players {
		roster = append(roster, reconciliation.PlayerRecord{
			ID:            p.PlayerID,
			CanonicalName: p.Name,
			Rating:        p.Rating,
			Team:          teams.Name(p.Team.String),
		})
	}

	s.store(ctx, rosterCacheKey, roster)
	return roster, nil
}

// Invalidate drops the cached roster, e.g. after ratings changed.
func (s *RosterService) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, rosterCacheKey)
}

// Resolver builds a team resolver from the built-in aliases plus stored ones.
func (s *RosterService) Resolver(ctx context.Context) (*teams.Resolver, error) {
	rows, err := s.storedTeamAliases(ctx)
	if err != nil {
		return nil, err
	}
	resolver, err := teams.NewResolver(teams.DefaultAliases, repository.Table(rows))
	if err != nil {
		return nil, fmt.Errorf("building team resolver: %w", err)
	}
	return resolver, nil
}

// TeamAliases lists the stored (non built-in) team aliases.
func (s *RosterService) TeamAliases(ctx context.Context) ([]*store.TeamAlias, error) {
	return s.storedTeamAliases(ctx)
}

func (s *RosterService) storedTeamAliases(ctx context.Context) ([]*store.TeamAlias, error) {
	var rows []*store.TeamAlias
	if err := cache.GetJSON(ctx, s.cache, teamAliasCacheKey, &rows); err == nil {
		return rows, nil
	}

	rows, err := s.teamAliases.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching team aliases: %w", err)
	}
	s.store(ctx, teamAliasCacheKey, rows)
	return rows, nil
}

// AddTeamAlias stores a new alias after checking it does not contradict the
// current table.
func (s *RosterService) AddTeamAlias(ctx context.Context, alias, canonical, createdBy string) (*store.TeamAlias, error) {
	if !teams.IsCanonical(canonical) {
		return nil, fmt.Errorf("unknown team %q: %w", canonical, store.ErrInvalidInput)
	}

	rows, err := s.storedTeamAliases(ctx)
	if err != nil {
		return nil, err
	}
	candidate := teams.AliasTable{alias: teams.Name(canonical)}
	if _, err := teams.NewResolver(teams.DefaultAliases, repository.Table(rows), candidate); err != nil {
		return nil, fmt.Errorf("%v: %w", err, store.ErrInvalidInput)
	}

	row := &store.TeamAlias{Alias: alias, CanonicalName: canonical}
	if createdBy != "" {
		row.CreatedBy.String, row.CreatedBy.Valid = createdBy, true
	}
	if err := s.teamAliases.Create(ctx, row); err != nil {
		return nil, err
	}

	if err := s.cache.Delete(ctx, teamAliasCacheKey); err != nil {
		s.logger.WithError(err).Warn("team alias cache invalidation failed")
	}
	s.logger.WithFields(logrus.Fields{"alias": row.Alias, "team": canonical}).Info("team alias added")
	return row, nil
}

// Matcher builds a player matcher from the built-in nicknames plus learned
// aliases.
func (s *RosterService) Matcher(ctx context.Context) (*reconciliation.Matcher, error) {
	var learned reconciliation.PlayerAliases
	if err := cache.GetJSON(ctx, s.cache, playerAliasCacheKey, &learned); err != nil {
		rows, err := s.playerAliases.GetAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching player aliases: %w", err)
		}
		learned = make(reconciliation.PlayerAliases, len(rows))
		for _, row := range rows {
			learned[row.Alias] = row.CanonicalName
		}
		s.store(ctx, playerAliasCacheKey, learned)
	}
	return reconciliation.NewMatcher(reconciliation.DefaultPlayerAliases, learned), nil
}

// Reconcile matches one external name against the roster. Fuzzy matches are
// remembered as learned aliases.
func (s *RosterService) Reconcile(ctx context.Context, query string) (reconciliation.MatchResult, error) {
	roster, err := s.Roster(ctx)
	if err != nil {
		return reconciliation.MatchResult{}, err
	}
	matcher, err := s.Matcher(ctx)
	if err != nil {
		return reconciliation.MatchResult{}, err
	}

	result := matcher.Reconcile(query, roster)
	if result.MatchType == reconciliation.MatchFuzzy {
		s.learn(ctx, query, result)
	}
	return result, nil
}

func (s *RosterService) learn(ctx context.Context, query string, result reconciliation.MatchResult) {
	log := s.logger.WithFields(logrus.Fields{
		"query": query,
		"match": result.Record.CanonicalName,
		"score": result.Score,
	})
	if err := s.playerAliases.Learn(ctx, query, result.Record.CanonicalName); err != nil {
		log.WithError(err).Warn("failed to learn player alias")
		return
	}
	if err := s.cache.Delete(ctx, playerAliasCacheKey); err != nil {
		log.WithError(err).Warn("player alias cache invalidation failed")
	}
	log.Debug("learned player alias")
}

func (s *RosterService) store(ctx context.Context, key string, v any) {
	if err := cache.SetJSON(ctx, s.cache, key, v, s.ttl); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}
