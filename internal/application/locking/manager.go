package locking

import (
	"context"
	"strings"
	"sync"
	"time"

	"clientbook-backend/internal/domain"

	"github.com/rs/zerolog/log"
)

// StaleAfter is the age past which a held lock is treated as abandoned.
const StaleAfter = 5 * time.Minute

// Store reads and writes the singleton lock record.
type Store interface {
	ReadLock(ctx context.Context) (domain.LockRecord, error)
	WriteLock(ctx context.Context, rec domain.LockRecord) error
}

// SwapStore is implemented by stores that can write a record only if the
// stored one still equals prev. The manager uses it so that two processes
// reading UNLOCKED at the same time cannot both take the lock.
type SwapStore interface {
	Store
	SwapLock(ctx context.Context, prev, next domain.LockRecord) (bool, error)
}

// Manager is the UNLOCKED/LOCKED state machine backing batch recalculation.
type Manager struct {
	Store Store
	// Now defaults to time.Now.
	Now func() time.Time

	mu sync.Mutex
}

func NewManager(store Store) *Manager {
	return &Manager{Store: store, Now: time.Now}
}

func (m *Manager) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

// Acquire takes the lock for actor. A lock younger than StaleAfter fails with
// a *ContentionError; an older one is overridden.
func (m *Manager) Acquire(ctx context.Context, actor string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrActorRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.Store.ReadLock(ctx)
	if err != nil {
		return err
	}
	now := m.now()
	if current.IsLocked() {
		age := now.Sub(current.Timestamp)
		if age < StaleAfter {
			return &ContentionError{Holder: current.Holder, Age: age}
		}
		log.Warn().Str("holder", current.Holder).Dur("age", age).Str("actor", actor).Msg("Overriding stale recalculation lock")
	}

	next := domain.LockRecord{
		Name:      domain.RecalculationLock,
		Status:    domain.Locked,
		Timestamp: now,
		Holder:    actor,
	}
	if swapper, ok := m.Store.(SwapStore); ok {
		swapped, err := swapper.SwapLock(ctx, current, next)
		if err != nil {
			return err
		}
		if !swapped {
			// Lost the race to another process; report whoever won.
			winner, err := m.Store.ReadLock(ctx)
			if err != nil {
				return err
			}
			return &ContentionError{Holder: winner.Holder, Age: now.Sub(winner.Timestamp)}
		}
		return nil
	}
	return m.Store.WriteLock(ctx, next)
}

// Release unconditionally writes UNLOCKED with a fresh timestamp.
func (m *Manager) Release(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Store.WriteLock(ctx, domain.LockRecord{
		Name:      domain.RecalculationLock,
		Status:    domain.Unlocked,
		Timestamp: m.now(),
	})
}

// Status returns the current lock record.
func (m *Manager) Status(ctx context.Context) (domain.LockRecord, error) {
	return m.Store.ReadLock(ctx)
}
