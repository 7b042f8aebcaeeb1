package service

import (
	"context"
	"fmt"

	"github.com/fortuna/tradedesk/internal/store"
	"github.com/fortuna/tradedesk/internal/teams"
)

// PlayerStore is the roster table as seen by PlayerService.
type PlayerStore interface {
	GetByID(ctx context.Context, playerID int) (*store.Player, error)
	GetByTeam(ctx context.Context, team string) ([]*store.Player, error)
}

// PlayerService handles player lookups for the API
type PlayerService struct {
	players PlayerStore
	roster  *RosterService
}

// NewPlayerService creates a new player service
func NewPlayerService(players PlayerStore, roster *RosterService) *PlayerService {
	return &PlayerService{
		players: players,
		roster:  roster,
	}
}

// GetPlayer retrieves a player by ID
func (s *PlayerService) GetPlayer(ctx context.Context, playerID int) (*store.Player, error) {
	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("fetching player: %w", err)
	}
	return player, nil
}

// GetTeamRoster resolves any accepted spelling of a team and returns its
// players.
func (s *PlayerService) GetTeamRoster(ctx context.Context, rawTeam string) (*TeamRoster, error) {
	resolver, err := s.roster.Resolver(ctx)
	if err != nil {
		return nil, err
	}
	team, ok := resolver.Resolve(rawTeam)
	if !ok {
		return nil, fmt.Errorf("team %q: %w", rawTeam, store.ErrNotFound)
	}

	players, err := s.players.GetByTeam(ctx, string(team))
	if err != nil {
		return nil, fmt.Errorf("fetching team roster: %w", err)
	}

	return &TeamRoster{Team: team, Players: players}, nil
}

// TeamRoster is a canonical team with its current players
type TeamRoster struct {
	Team    teams.Name      `json:"team"`
	Players []*store.Player `json:"players"`
}
