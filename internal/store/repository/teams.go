package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fortuna/tradedesk/internal/names"
	"github.com/fortuna/tradedesk/internal/store"
	"github.com/fortuna/tradedesk/internal/teams"
)

// TeamAliasRepository handles admin-maintained team alias rows
type TeamAliasRepository struct {
	db *store.Database
}

// NewTeamAliasRepository creates a new team alias repository
func NewTeamAliasRepository(db *store.Database) *TeamAliasRepository {
	return &TeamAliasRepository{db: db}
}

// GetAll returns every stored alias
func (r *TeamAliasRepository) GetAll(ctx context.Context) ([]*store.TeamAlias, error) {
	query := `
		SELECT id, alias, canonical_name, created_by, created_at
		FROM team_aliases
		ORDER BY canonical_name, alias
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying team aliases: %w", err)
	}
	defer rows.Close()

	var aliases []*store.TeamAlias
	for rows.Next() {
		alias := &store.TeamAlias{}
		if err := rows.Scan(&alias.ID, &alias.Alias, &alias.CanonicalName, &alias.CreatedBy, &alias.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning team alias: %w", err)
		}
		aliases = append(aliases, alias)
	}

	return aliases, rows.Err()
}

// Create stores a new alias. The alias is normalized first and must point at
// a canonical team.
func (r *TeamAliasRepository) Create(ctx context.Context, alias *store.TeamAlias) error {
	alias.Alias = names.Normalize(alias.Alias)
	if alias.Alias == "" {
		return fmt.Errorf("alias is empty: %w", store.ErrInvalidInput)
	}
	if !teams.IsCanonical(alias.CanonicalName) {
		return fmt.Errorf("unknown team %q: %w", alias.CanonicalName, store.ErrInvalidInput)
	}

	query := `
		INSERT INTO team_aliases (alias, canonical_name, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.DB().QueryRowContext(ctx, query, alias.Alias, alias.CanonicalName, alias.CreatedBy).
		Scan(&alias.ID, &alias.CreatedAt)
	if store.IsUniqueViolation(err) {
		return fmt.Errorf("team alias %q: %w", alias.Alias, store.ErrDuplicateKey)
	}
	if err != nil {
		return fmt.Errorf("inserting team alias: %w", err)
	}
	return nil
}

// Delete removes an alias by its (normalized) text
func (r *TeamAliasRepository) Delete(ctx context.Context, alias string) error {
	res, err := r.db.DB().ExecContext(ctx, `DELETE FROM team_aliases WHERE alias = $1`, names.Normalize(alias))
	if err != nil {
		return fmt.Errorf("deleting team alias: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("team alias %q: %w", alias, store.ErrNotFound)
	}
	return nil
}

// Table converts stored rows into an alias table for teams.NewResolver
func Table(aliases []*store.TeamAlias) teams.AliasTable {
	table := make(teams.AliasTable, len(aliases))
	for _, a := range aliases {
		table[strings.TrimSpace(a.Alias)] = teams.Name(a.CanonicalName)
	}
	return table
}

// GetByAlias finds a single alias row
func (r *TeamAliasRepository) GetByAlias(ctx context.Context, alias string) (*store.TeamAlias, error) {
	query := `
		SELECT id, alias, canonical_name, created_by, created_at
		FROM team_aliases
		WHERE alias = $1
	`

	row := &store.TeamAlias{}
	err := r.db.DB().QueryRowContext(ctx, query, names.Normalize(alias)).
		Scan(&row.ID, &row.Alias, &row.CanonicalName, &row.CreatedBy, &row.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("team alias %q: %w", alias, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying team alias: %w", err)
	}
	return row, nil
}
