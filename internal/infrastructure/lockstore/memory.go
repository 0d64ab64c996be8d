package lockstore

import (
	"context"
	"sync"

	"clientbook-backend/internal/application/locking"
	"clientbook-backend/internal/domain"
)

// Memory keeps the lock record in process. Used by tests and single-instance dev runs.
type Memory struct {
	mu  sync.Mutex
	rec domain.LockRecord
}

func NewMemory() *Memory {
	return &Memory{rec: unlocked()}
}

func (m *Memory) ReadLock(_ context.Context) (domain.LockRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec, nil
}

func (m *Memory) WriteLock(_ context.Context, rec domain.LockRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.Revision = m.rec.Revision + 1
	m.rec = rec
	return nil
}

func (m *Memory) SwapLock(_ context.Context, prev, next domain.LockRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec.Revision != prev.Revision {
		return false, nil
	}
	next.Revision = m.rec.Revision + 1
	m.rec = next
	return true, nil
}

var _ locking.SwapStore = (*Memory)(nil)
