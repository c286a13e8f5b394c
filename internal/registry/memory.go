package registry

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local registry. List returns registrations in the order
// they were first registered.
type Memory struct {
	mu    sync.RWMutex
	regs  map[int64]Registration
	order []int64
}

// NewMemory creates an empty in-memory registry
func NewMemory() *Memory {
	return &Memory{regs: make(map[int64]Registration)}
}

func (m *Memory) Register(_ context.Context, reg Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.regs[reg.ClubID]
	reg.LastSyncAt = existing.LastSyncAt
	if !ok {
		m.order = append(m.order, reg.ClubID)
	}
	m.regs[reg.ClubID] = reg
	return nil
}

func (m *Memory) Unregister(_ context.Context, clubID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.regs[clubID]; !ok {
		return nil
	}
	delete(m.regs, clubID)
	for i, id := range m.order {
		if id == clubID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) Get(_ context.Context, clubID int64) (*Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reg, ok := m.regs[clubID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyOf(reg), nil
}

func (m *Memory) List(_ context.Context) ([]Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	regs := make([]Registration, 0, len(m.order))
	for _, id := range m.order {
		regs = append(regs, *copyOf(m.regs[id]))
	}
	return regs, nil
}

func (m *Memory) MarkSynced(_ context.Context, clubID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg, ok := m.regs[clubID]
	if !ok {
		return ErrNotFound
	}
	reg.LastSyncAt = laterOf(reg.LastSyncAt, at)
	m.regs[clubID] = reg
	return nil
}

func (m *Memory) Close() error { return nil }

// copyOf detaches the LastSyncAt pointer from the stored value
func copyOf(reg Registration) *Registration {
	if reg.LastSyncAt != nil {
		t := *reg.LastSyncAt
		reg.LastSyncAt = &t
	}
	return &reg
}
