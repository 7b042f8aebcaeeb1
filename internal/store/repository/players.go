package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/tradedesk/internal/store"
)

// PlayerRepository handles roster data access
type PlayerRepository struct {
	db *store.Database
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db *store.Database) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const playerColumns = `player_id, name, team, rating, badges, external_id, created_at, updated_at`

// GetByID finds a player by ID
func (r *PlayerRepository) GetByID(ctx context.Context, playerID int) (*store.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE player_id = $1`

	player := &store.Player{}
	err := r.db.DB().QueryRowContext(ctx, query, playerID).Scan(
		&player.PlayerID, &player.Name, &player.Team, &player.Rating, &player.Badges,
		&player.ExternalID, &player.CreatedAt, &player.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %d: %w", playerID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying player: %w", err)
	}

	return player, nil
}

// GetAll returns the full roster ordered by name
func (r *PlayerRepository) GetAll(ctx context.Context) ([]*store.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players ORDER BY name, player_id`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying players: %w", err)
	}
	defer rows.Close()

	return r.scanPlayers(rows)
}

// GetByTeam returns players currently on the given team
func (r *PlayerRepository) GetByTeam(ctx context.Context, team string) ([]*store.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE team = $1 ORDER BY rating DESC, name`

	rows, err := r.db.DB().QueryContext(ctx, query, team)
	if err != nil {
		return nil, fmt.Errorf("querying team players: %w", err)
	}
	defer rows.Close()

	return r.scanPlayers(rows)
}

// Create inserts a player and fills in its generated ID and timestamps
func (r *PlayerRepository) Create(ctx context.Context, player *store.Player) error {
	query := `
		INSERT INTO players (name, team, rating, badges, external_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING player_id, created_at, updated_at
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		player.Name, player.Team, player.Rating, player.Badges, player.ExternalID,
	).Scan(&player.PlayerID, &player.CreatedAt, &player.UpdatedAt)
	if store.IsUniqueViolation(err) {
		return fmt.Errorf("player %s: %w", player.ExternalID.String, store.ErrDuplicateKey)
	}
	if err != nil {
		return fmt.Errorf("inserting player: %w", err)
	}
	return nil
}

// UpdateRating sets a player's rating
func (r *PlayerRepository) UpdateRating(ctx context.Context, playerID int, rating int) error {
	query := `UPDATE players SET rating = $2, updated_at = NOW() WHERE player_id = $1`

	res, err := r.db.DB().ExecContext(ctx, query, playerID, rating)
	if err != nil {
		return fmt.Errorf("updating rating: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating rating: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("player %d: %w", playerID, store.ErrNotFound)
	}
	return nil
}

func (r *PlayerRepository) scanPlayers(rows *sql.Rows) ([]*store.Player, error) {
	var players []*store.Player
	for rows.Next() {
		player := &store.Player{}
		err := rows.Scan(
			&player.PlayerID, &player.Name, &player.Team, &player.Rating, &player.Badges,
			&player.ExternalID, &player.CreatedAt, &player.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		players = append(players, player)
	}
	return players, rows.Err()
}
