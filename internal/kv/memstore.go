package kv

import (
	"context"
	"sync"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// Nothing survives process exit; it exists for tests and for running the
// assistant with persistence disabled. The zero value is ready to use.
type MemStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{slots: make(map[string][]byte)}
}

// Load implements [Store.Load].
func (s *MemStore) Load(ctx context.Context, slot string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.slots[slot]
	if !ok {
		return nil, ErrSlotNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Save implements [Store.Save].
func (s *MemStore) Save(ctx context.Context, slot string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.slots == nil {
		s.slots = make(map[string][]byte)
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	s.slots[slot] = stored
	return nil
}

// Delete implements [Store.Delete].
func (s *MemStore) Delete(ctx context.Context, slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.slots, slot)
	return nil
}

// Close implements [Store.Close]. It is a no-op for MemStore.
func (s *MemStore) Close() error { return nil }
