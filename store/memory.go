package store

import (
	"context"
	"sync"
	"time"
)

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory Store implementation.
// It is safe for concurrent use. Entries are lost on process restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]Entry),
	}
}

// Get returns the entry for key.
func (m *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	return e, ok, nil
}

// Put creates or replaces the entry for key.
func (m *MemoryStore) Put(_ context.Context, key string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = e
	return nil
}

// Delete removes the entry for the given key.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// DeleteIdle removes entries last seen before cutoff.
func (m *MemoryStore) DeleteIdle(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for key, e := range m.entries {
		if e.LastRequest.Before(cutoff) {
			delete(m.entries, key)
			n++
		}
	}
	return n, nil
}

// List returns a copy of all entries.
func (m *MemoryStore) List(_ context.Context) (map[string]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]Entry, len(m.entries))
	for key, e := range m.entries {
		out[key] = e
	}
	return out, nil
}

// Clear removes all entries.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.entries)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
