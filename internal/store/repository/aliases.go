package repository

import (
	"context"
	"fmt"

	"github.com/fortuna/tradedesk/internal/names"
	"github.com/fortuna/tradedesk/internal/store"
)

// PlayerAliasRepository handles learned player aliases
type PlayerAliasRepository struct {
	db *store.Database
}

// NewPlayerAliasRepository creates a new player alias repository
func NewPlayerAliasRepository(db *store.Database) *PlayerAliasRepository {
	return &PlayerAliasRepository{db: db}
}

// GetAll returns every learned alias, most used first
func (r *PlayerAliasRepository) GetAll(ctx context.Context) ([]*store.PlayerAlias, error) {
	query := `
		SELECT alias, canonical_name, use_count, created_at, last_used_at
		FROM player_aliases
		ORDER BY use_count DESC, alias
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying player aliases: %w", err)
	}
	defer rows.Close()

	var aliases []*store.PlayerAlias
	for rows.Next() {
		a := &store.PlayerAlias{}
		if err := rows.Scan(&a.Alias, &a.CanonicalName, &a.UseCount, &a.CreatedAt, &a.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scanning player alias: %w", err)
		}
		aliases = append(aliases, a)
	}

	return aliases, rows.Err()
}

// Learn records that alias resolved to canonicalName, bumping the use count
// when the pair is already known
func (r *PlayerAliasRepository) Learn(ctx context.Context, alias, canonicalName string) error {
	key := names.Normalize(alias)
	if key == "" || canonicalName == "" {
		return fmt.Errorf("alias and canonical name are required: %w", store.ErrInvalidInput)
	}

	query := `
		INSERT INTO player_aliases (alias, canonical_name)
		VALUES ($1, $2)
		ON CONFLICT (alias) DO UPDATE SET
			canonical_name = EXCLUDED.canonical_name,
			use_count = CASE
				WHEN player_aliases.canonical_name = EXCLUDED.canonical_name THEN player_aliases.use_count + 1
				ELSE 1
			END,
			last_used_at = NOW()
	`

	if _, err := r.db.DB().ExecContext(ctx, query, key, canonicalName); err != nil {
		return fmt.Errorf("learning player alias: %w", err)
	}
	return nil
}
