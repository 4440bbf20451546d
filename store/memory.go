package store

import (
	"context"
	"sync"

	"Quorum/queue"
)

// Memory is an in-memory Store. It backs tests and single-node setups
// that run without Postgres.
type Memory struct {
	mu    sync.RWMutex
	snaps map[string]queue.Snapshot
}

func NewMemory() *Memory {
	return &Memory{snaps: make(map[string]queue.Snapshot)}
}

func (m *Memory) Load(ctx context.Context, guildID string) (queue.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snaps[guildID]
	if !ok {
		return queue.NewSnapshot(), nil
	}
	return snap, nil
}

func (m *Memory) Save(ctx context.Context, guildID string, snap queue.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Copy the pending slice so later queue mutations cannot reach into
	// the stored snapshot.
	saved := snap
	saved.Pending = append([]queue.Track(nil), snap.Pending...)
	m.snaps[guildID] = saved
	return nil
}
