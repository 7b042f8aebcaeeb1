// Package lease coordinates singleton roles across processes with a
// time-bounded ownership record: the holder renews it periodically and anyone
// may take it over once it has gone stale.
package lease

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrLost is returned by Keepalive when the lease was taken over or could not
// be renewed before it expired.
var ErrLost = errors.New("lease lost")

// Store is the shared backend holding lease records.
type Store interface {
	// TryAcquire takes name for owner if it is free, expired, or already
	// held by owner, and sets its expiry to now+ttl.
	TryAcquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	// Renew extends the lease only if owner still holds it.
	Renew(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	// Release drops the lease only if owner holds it.
	Release(ctx context.Context, name, owner string) error
}

// Manager holds one named lease on behalf of this process.
type Manager struct {
	store      Store
	name       string
	owner      string
	ttl        time.Duration
	renewEvery time.Duration
	logger     logrus.FieldLogger

	mu          sync.Mutex
	held        bool
	lastRenewed time.Time
}

// NewManager creates a manager with a fresh random owner identity. The lease
// is renewed every ttl/3.
func NewManager(store Store, name string, ttl time.Duration, logger logrus.FieldLogger) *Manager {
	return NewManagerWithOwner(store, name, uuid.NewString(), ttl, logger)
}

// NewManagerWithOwner is NewManager with an explicit owner identity.
func NewManagerWithOwner(store Store, name, owner string, ttl time.Duration, logger logrus.FieldLogger) *Manager {
	renewEvery := ttl / 3
	if renewEvery <= 0 {
		renewEvery = time.Second
	}
	return &Manager{
		store:      store,
		name:       name,
		owner:      owner,
		ttl:        ttl,
		renewEvery: renewEvery,
		logger: logger.WithFields(logrus.Fields{
			"lease": name,
			"owner": owner,
		}),
	}
}

// Owner returns this manager's owner identity.
func (m *Manager) Owner() string {
	return m.owner
}

// Held reports whether the last acquire or renew succeeded.
func (m *Manager) Held() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held
}

func (m *Manager) setHeld(held bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held = held
	if held {
		m.lastRenewed = time.Now()
	}
}

// Acquire makes a single attempt to take the lease.
func (m *Manager) Acquire(ctx context.Context) (bool, error) {
	ok, err := m.store.TryAcquire(ctx, m.name, m.owner, m.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire lease %s: %w", m.name, err)
	}
	m.setHeld(ok)
	if ok {
		m.logger.Info("✓ Lease acquired")
	}
	return ok, nil
}

// AcquireWait retries Acquire every interval until it succeeds or ctx ends.
func (m *Manager) AcquireWait(ctx context.Context, interval time.Duration) error {
	for {
		ok, err := m.Acquire(ctx)
		if err != nil {
			m.logger.WithError(err).Warn("lease acquire failed")
		}
		if ok {
			return nil
		}

		m.logger.Debug("lease held elsewhere, waiting")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Keepalive renews the lease until ctx is cancelled, then releases it and
// returns nil. It returns ErrLost if another owner took the lease or renewal
// kept failing until the lease expired.
func (m *Manager) Keepalive(ctx context.Context) error {
	ticker := time.NewTicker(m.renewEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			return m.Release(releaseCtx)
		case <-ticker.C:
			ok, err := m.store.Renew(ctx, m.name, m.owner, m.ttl)
			if err != nil {
				m.logger.WithError(err).Warn("lease renew failed")
				if m.expired() {
					m.setHeld(false)
					return fmt.Errorf("%w: renew kept failing: %v", ErrLost, err)
				}
				continue
			}
			if !ok {
				m.setHeld(false)
				m.logger.Warn("lease taken over by another owner")
				return ErrLost
			}
			m.setHeld(true)
		}
	}
}

func (m *Manager) expired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.lastRenewed) >= m.ttl
}

// Release gives up the lease if this manager holds it.
func (m *Manager) Release(ctx context.Context) error {
	if !m.Held() {
		return nil
	}
	if err := m.store.Release(ctx, m.name, m.owner); err != nil {
		return fmt.Errorf("release lease %s: %w", m.name, err)
	}
	m.setHeld(false)
	m.logger.Info("Lease released")
	return nil
}
