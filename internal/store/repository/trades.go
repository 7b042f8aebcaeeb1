package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fortuna/tradedesk/internal/store"
)

// TradeRepository is the append-only ledger of applied trades
type TradeRepository struct {
	db *store.Database
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(db *store.Database) *TradeRepository {
	return &TradeRepository{db: db}
}

const tradeColumns = `message_id, raw_text, parsed, teams, is_valid, error_count, created_at`

// Insert appends a trade; a repeated message id returns store.ErrDuplicateKey
func (r *TradeRepository) Insert(ctx context.Context, rec *store.TradeRecord) error {
	query := `
		INSERT INTO trades (message_id, raw_text, parsed, teams, is_valid, error_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		rec.MessageID, rec.RawText, string(rec.Parsed), pq.Array(rec.Teams), rec.IsValid, rec.ErrorCount,
	).Scan(&rec.CreatedAt)
	if store.IsUniqueViolation(err) {
		return fmt.Errorf("trade %s: %w", rec.MessageID, store.ErrDuplicateKey)
	}
	if err != nil {
		return fmt.Errorf("inserting trade: %w", err)
	}
	return nil
}

// GetByMessageID finds a trade by its source message
func (r *TradeRepository) GetByMessageID(ctx context.Context, messageID string) (*store.TradeRecord, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE message_id = $1`

	rec, err := scanTrade(r.db.DB().QueryRowContext(ctx, query, messageID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trade %s: %w", messageID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying trade: %w", err)
	}
	return rec, nil
}

// ListRecent returns the newest trades first
func (r *TradeRepository) ListRecent(ctx context.Context, limit int) ([]*store.TradeRecord, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing trades: %w", err)
	}
	defer rows.Close()

	var out []*store.TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning trade: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanTrade(scanner interface {
	Scan(dest ...interface{}) error
}) (*store.TradeRecord, error) {
	rec := &store.TradeRecord{}
	var parsed []byte
	err := scanner.Scan(
		&rec.MessageID,
		&rec.RawText,
		&parsed,
		pq.Array(&rec.Teams),
		&rec.IsValid,
		&rec.ErrorCount,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Parsed = parsed
	return rec, nil
}
