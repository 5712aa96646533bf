package persist

import (
	"context"
	"sync"
)

// Memory is a store that only lives as long as the process
type Memory struct {
	mu    sync.Mutex
	snap  Snapshot
	saved bool
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.saved {
		return Snapshot{}, wrap("load", "memory", ErrNotFound)
	}
	return cloneSnapshot(m.snap), nil
}

func (m *Memory) Save(ctx context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snap = cloneSnapshot(snap)
	m.saved = true
	return nil
}

func (m *Memory) Close() error {
	return nil
}

func cloneSnapshot(s Snapshot) Snapshot {
	cells := make([]Record, len(s.Cells))
	copy(cells, s.Cells)
	return Snapshot{Version: s.Version, Cells: cells}
}
