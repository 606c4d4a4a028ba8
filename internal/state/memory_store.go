package state

import (
	"context"
	"sync"

	"seatwatch/internal/domain"
)

// MemoryStore keeps the snapshot in process memory for single-run mode.
// Params: mutex-guarded snapshot copy.
// Returns: store implementation without external dependencies.
type MemoryStore struct {
	mu       sync.RWMutex
	snapshot domain.StatusMap
}

// NewMemoryStore creates an in-memory store.
// Params: none.
// Returns: initialized empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the snapshot saved earlier in this process.
// Params: context (unused).
// Returns: snapshot copy, or found=false before the first Save.
func (s *MemoryStore) Load(_ context.Context) (domain.StatusMap, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, false, nil
	}
	return s.snapshot.Clone(), true, nil
}

// Save replaces the stored snapshot.
// Params: context (unused) and snapshot to keep.
// Returns: nil (in-memory update).
func (s *MemoryStore) Save(_ context.Context, snapshot domain.StatusMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snapshot.Clone()
	return nil
}

// Close releases memory store resources.
// Params: none.
// Returns: nil.
func (s *MemoryStore) Close() error {
	return nil
}
