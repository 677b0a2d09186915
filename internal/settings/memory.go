package settings

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore keeps settings in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, keys ...string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make(map[string]string, len(keys))
	for _, key := range keys {
		if value, ok := s.values[key]; ok {
			items[key] = value
		}
	}

	return items, nil
}

func (s *MemoryStore) Set(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	maps.Copy(s.values, values)

	return nil
}

// Snapshot returns a copy of everything stored.
func (s *MemoryStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.values)
}

// MemoryScopes hands out one MemoryStore per scope, created on first use.
type MemoryScopes struct {
	mu     sync.Mutex
	stores map[string]*MemoryStore
}

func NewMemoryScopes() *MemoryScopes {
	return &MemoryScopes{stores: make(map[string]*MemoryStore)}
}

func (m *MemoryScopes) Scope(scope string) Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	store, ok := m.stores[scope]
	if !ok {
		store = NewMemoryStore()
		m.stores[scope] = store
	}

	return store
}
