package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/desertthunder/melodymind/internal/models"
)

// StatusStore holds one [models.TransferStatus] per session.
//
// Get returns [models.IdleStatus] for unknown sessions. Update applies fn atomically with respect
// to other writers of the same session.
type StatusStore interface {
	Get(ctx context.Context, session string) (models.TransferStatus, error)
	Set(ctx context.Context, session string, status models.TransferStatus) error
	Update(ctx context.Context, session string, fn func(*models.TransferStatus)) error
}

type statusCell struct {
	mu     sync.Mutex
	status models.TransferStatus
}

// MemoryStatusStore keeps statuses in process with a lock per session.
type MemoryStatusStore struct {
	mu    sync.Mutex
	cells map[string]*statusCell
	now   func() time.Time
}

// NewMemoryStatusStore creates an empty store.
func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{cells: make(map[string]*statusCell), now: time.Now}
}

func (m *MemoryStatusStore) cell(session string, create bool) *statusCell {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cells[session]
	if !ok && create {
		c = &statusCell{status: models.IdleStatus()}
		m.cells[session] = c
	}
	return c
}

// Get implements [StatusStore].
func (m *MemoryStatusStore) Get(_ context.Context, session string) (models.TransferStatus, error) {
	c := m.cell(session, false)
	if c == nil {
		return models.IdleStatus(), nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyStatus(c.status), nil
}

// Set implements [StatusStore].
func (m *MemoryStatusStore) Set(_ context.Context, session string, status models.TransferStatus) error {
	c := m.cell(session, true)
	c.mu.Lock()
	defer c.mu.Unlock()
	status.UpdatedAt = m.now()
	c.status = copyStatus(status)
	return nil
}

// Update implements [StatusStore].
func (m *MemoryStatusStore) Update(_ context.Context, session string, fn func(*models.TransferStatus)) error {
	c := m.cell(session, true)
	c.mu.Lock()
	defer c.mu.Unlock()
	next := copyStatus(c.status)
	fn(&next)
	next.UpdatedAt = m.now()
	c.status = next
	return nil
}

func copyStatus(s models.TransferStatus) models.TransferStatus {
	if s.Error != nil {
		msg := *s.Error
		s.Error = &msg
	}
	return s
}
