package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/tradedesk/internal/store"
)

// LeaseRepository is the postgres lease.Store. Expiry is evaluated with the
// database clock so processes with skewed clocks agree.
type LeaseRepository struct {
	db *store.Database
}

// NewLeaseRepository creates a new lease repository
func NewLeaseRepository(db *store.Database) *LeaseRepository {
	return &LeaseRepository{db: db}
}

// TryAcquire takes the lease if it is free, expired or already ours
func (r *LeaseRepository) TryAcquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	query := `
		INSERT INTO leases (name, owner, acquired_at, renewed_at, expires_at)
		VALUES ($1, $2, NOW(), NOW(), NOW() + $3::double precision * INTERVAL '1 millisecond')
		ON CONFLICT (name) DO UPDATE SET
			owner = EXCLUDED.owner,
			acquired_at = CASE WHEN leases.owner = EXCLUDED.owner THEN leases.acquired_at ELSE NOW() END,
			renewed_at = NOW(),
			expires_at = EXCLUDED.expires_at
		WHERE leases.owner = EXCLUDED.owner OR leases.expires_at < NOW()
		RETURNING owner
	`

	var got string
	err := r.db.DB().QueryRowContext(ctx, query, name, owner, ttl.Milliseconds()).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquiring lease: %w", err)
	}
	return got == owner, nil
}

// Renew extends the lease if owner still holds it
func (r *LeaseRepository) Renew(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	query := `
		UPDATE leases
		SET renewed_at = NOW(), expires_at = NOW() + $3::double precision * INTERVAL '1 millisecond'
		WHERE name = $1 AND owner = $2
	`

	res, err := r.db.DB().ExecContext(ctx, query, name, owner, ttl.Milliseconds())
	if err != nil {
		return false, fmt.Errorf("renewing lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("renewing lease: %w", err)
	}
	return n == 1, nil
}

// Release deletes the lease if owner holds it
func (r *LeaseRepository) Release(ctx context.Context, name, owner string) error {
	if _, err := r.db.DB().ExecContext(ctx, `DELETE FROM leases WHERE name = $1 AND owner = $2`, name, owner); err != nil {
		return fmt.Errorf("releasing lease: %w", err)
	}
	return nil
}

// Get returns the current lease row
func (r *LeaseRepository) Get(ctx context.Context, name string) (*store.Lease, error) {
	query := `SELECT name, owner, acquired_at, renewed_at, expires_at FROM leases WHERE name = $1`

	l := &store.Lease{}
	err := r.db.DB().QueryRowContext(ctx, query, name).Scan(&l.Name, &l.Owner, &l.AcquiredAt, &l.RenewedAt, &l.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lease %s: %w", name, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying lease: %w", err)
	}
	return l, nil
}
