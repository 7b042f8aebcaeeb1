package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fortuna/tradedesk/internal/guard"
	"github.com/fortuna/tradedesk/internal/store"
)

// EventRepository is the postgres guard.Store. The processed_events primary
// key is what makes claims exclusive.
type EventRepository struct {
	db *store.Database
}

// NewEventRepository creates a new processed-event repository
func NewEventRepository(db *store.Database) *EventRepository {
	return &EventRepository{db: db}
}

// Insert claims an external id, returning store.ErrDuplicateKey if it exists
func (r *EventRepository) Insert(ctx context.Context, rec guard.Record) error {
	query := `INSERT INTO processed_events (external_id, processed_at) VALUES ($1, $2)`

	_, err := r.db.DB().ExecContext(ctx, query, rec.ExternalID, rec.ProcessedAt)
	if store.IsUniqueViolation(err) {
		return store.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("inserting processed event: %w", err)
	}
	return nil
}

// Get finds the record for an external id
func (r *EventRepository) Get(ctx context.Context, externalID string) (*guard.Record, error) {
	query := `SELECT external_id, processed_at FROM processed_events WHERE external_id = $1`

	rec := &guard.Record{}
	err := r.db.DB().QueryRowContext(ctx, query, externalID).Scan(&rec.ExternalID, &rec.ProcessedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying processed event: %w", err)
	}
	return rec, nil
}

// Delete drops a claim
func (r *EventRepository) Delete(ctx context.Context, externalID string) error {
	if _, err := r.db.DB().ExecContext(ctx, `DELETE FROM processed_events WHERE external_id = $1`, externalID); err != nil {
		return fmt.Errorf("deleting processed event: %w", err)
	}
	return nil
}
