// Package guard makes side effects keyed by an external message id run at
// most once, no matter how often or how concurrently the message arrives.
package guard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/tradedesk/internal/store"
)

// Record marks an external id as processed.
type Record struct {
	ExternalID  string    `json:"externalId"`
	ProcessedAt time.Time `json:"processedAt"`
}

// Store persists processed-event records. Insert must be atomic with respect
// to the id: exactly one concurrent Insert for an id succeeds and every other
// one returns store.ErrDuplicateKey.
type Store interface {
	Insert(ctx context.Context, rec Record) error
	Get(ctx context.Context, externalID string) (*Record, error) // store.ErrNotFound when absent
	Delete(ctx context.Context, externalID string) error
}

// Result reports what TryProcess did.
type Result struct {
	Processed   bool      `json:"processed"`
	ProcessedAt time.Time `json:"processedAt,omitempty"`
}

// Effect is the side effect guarded by TryProcess.
type Effect func(ctx context.Context) error

// Guard runs effects at most once per external id.
type Guard struct {
	store  Store
	logger logrus.FieldLogger
	now    func() time.Time
}

// New creates a guard over the given store.
func New(s Store, logger logrus.FieldLogger) *Guard {
	return &Guard{
		store:  s,
		logger: logger,
		now:    time.Now,
	}
}

// TryProcess runs effect if externalID has never been processed.
//
// The id is claimed by inserting its record before the effect runs, so the
// storage uniqueness constraint decides the single winner among concurrent
// callers. Losing the race, or finding an existing record, is a normal
// outcome reported as Processed=false. If the effect fails the claim is
// removed so a later delivery can retry, and the effect's error is returned.
//
// Delivery is at most once. If the process dies after the claim is inserted
// and before the effect completes, the record stays and every redelivery of
// externalID reports Processed=false; the event is not retried. Effects that
// must not be lost need their own reconciliation (the trade ledger is keyed
// by the same id, so a claimed id with no ledger row marks such a loss).
func (g *Guard) TryProcess(ctx context.Context, externalID string, effect Effect) (Result, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return Result{}, fmt.Errorf("external id is required: %w", store.ErrInvalidInput)
	}

	log := g.logger.WithField("message_id", externalID)

	// Fast path for redeliveries.
	if _, err := g.store.Get(ctx, externalID); err == nil {
		log.Debug("duplicate event ignored")
		return Result{Processed: false}, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return Result{}, fmt.Errorf("check processed event: %w", err)
	}

	rec := Record{ExternalID: externalID, ProcessedAt: g.now().UTC()}
	if err := g.store.Insert(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			log.Debug("duplicate event ignored (lost claim race)")
			return Result{Processed: false}, nil
		}
		return Result{}, fmt.Errorf("claim event: %w", err)
	}

	if err := effect(ctx); err != nil {
		// Release even if ctx is already cancelled.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if delErr := g.store.Delete(releaseCtx, externalID); delErr != nil {
			log.WithError(delErr).Error("failed to release claim after effect error")
		}
		return Result{}, err
	}

	log.Debug("event processed")
	return Result{Processed: true, ProcessedAt: rec.ProcessedAt}, nil
}

// IsProcessed reports whether externalID has a record.
func (g *Guard) IsProcessed(ctx context.Context, externalID string) (bool, error) {
	_, err := g.store.Get(ctx, externalID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check processed event: %w", err)
	}
	return true, nil
}
