// Package snapshot persists the single rolling playtime snapshot between runs.
package snapshot

import (
	"context"
	"sync"

	"github.com/steam-digest/internal/domain"
)

// Store holds exactly the most recent observation. Load returns an empty
// snapshot when no state has been persisted yet; Save is an unconditional
// full overwrite. No merging, no retention.
type Store interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, snapshot domain.Snapshot) error
}

// MemoryStore is an in-process Store, used in tests and preview runs where
// the baseline must not be advanced.
type MemoryStore struct {
	mu       sync.Mutex
	snapshot domain.Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the held snapshot, empty if nothing was saved.
func (m *MemoryStore) Load(ctx context.Context) (domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return domain.Snapshot{}, nil
	}
	return m.snapshot.Clone(), nil
}

// Save overwrites the held snapshot.
func (m *MemoryStore) Save(ctx context.Context, snapshot domain.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = snapshot.Clone()
	return nil
}
