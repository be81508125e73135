package kv

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory implementation of the Store interface.
// It uses a map for storage and RWMutex for thread-safe concurrent access.
// Values do not survive the process; it is the default store and the one tests use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Value
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Value),
	}
}

// Get retrieves the value stored at key.
func (m *MemoryStore) Get(_ context.Context, key string) (Value, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.entries[key]
	return v, ok, nil
}

// Set stores v at key.
func (m *MemoryStore) Set(_ context.Context, key string, v Value) error {
	if key == "" {
		return ErrEmptyKey
	}
	if v == nil {
		return ErrNilValue
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = v
	return nil
}

// Remove deletes key from memory.
func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Idempotent: no error if key doesn't exist
	delete(m.entries, key)
	return nil
}

// List returns all entries with the given key prefix, sorted by key.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Entry, 0, len(m.entries))
	for k, v := range m.entries {
		if strings.HasPrefix(k, prefix) {
			result = append(result, Entry{Key: k, Value: v})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

// ApplyBatch applies muts under a single write lock so readers never observe a
// partially applied batch.
func (m *MemoryStore) ApplyBatch(_ context.Context, muts []Mutation) error {
	for _, mut := range muts {
		if mut.Key == "" {
			return ErrEmptyKey
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, mut := range muts {
		if mut.IsRemove() {
			delete(m.entries, mut.Key)
			continue
		}
		m.entries[mut.Key] = mut.Value
	}
	return nil
}

// Close is a no-op for MemoryStore as there are no resources to release.
func (m *MemoryStore) Close() error {
	return nil
}
