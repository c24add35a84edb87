package store

import (
	"context"
	"time"
)

// Compile-time interface check.
var _ Store = (*TieredStore)(nil)

// TieredStore wraps an in-memory store (fast path) with a persistent backend
// (durable path). Writes go to both stores (write-through); reads check memory
// first and fall back to the persistent store on a miss.
type TieredStore struct {
	memory     *MemoryStore
	persistent Store
}

// NewTieredStore creates a TieredStore backed by the given persistent store.
// An internal MemoryStore is created automatically.
func NewTieredStore(persistent Store) *TieredStore {
	return &TieredStore{
		memory:     NewMemoryStore(),
		persistent: persistent,
	}
}

// Get reads from memory first. On a miss it falls back to the persistent
// store and backfills memory.
func (t *TieredStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	e, found, err := t.memory.Get(ctx, key)
	if err != nil {
		return Entry{}, false, err
	}
	if found {
		return e, true, nil
	}

	e, found, err = t.persistent.Get(ctx, key)
	if err != nil || !found {
		return Entry{}, false, err
	}

	t.memory.Put(ctx, key, e)
	return e, true, nil
}

// Put writes through to the persistent backend, then memory. Memory is only
// updated once the durable write succeeded.
func (t *TieredStore) Put(ctx context.Context, key string, e Entry) error {
	if err := t.persistent.Put(ctx, key, e); err != nil {
		return err
	}
	return t.memory.Put(ctx, key, e)
}

// Delete removes the entry from both stores.
func (t *TieredStore) Delete(ctx context.Context, key string) error {
	t.memory.Delete(ctx, key)
	return t.persistent.Delete(ctx, key)
}

// DeleteIdle evicts from both stores. The persistent count is authoritative.
func (t *TieredStore) DeleteIdle(ctx context.Context, cutoff time.Time) (int, error) {
	t.memory.DeleteIdle(ctx, cutoff)
	return t.persistent.DeleteIdle(ctx, cutoff)
}

// List reads from the persistent store, which holds every entry.
func (t *TieredStore) List(ctx context.Context) (map[string]Entry, error) {
	return t.persistent.List(ctx)
}

// Clear removes all entries from both stores.
func (t *TieredStore) Clear(ctx context.Context) error {
	t.memory.Clear(ctx)
	return t.persistent.Clear(ctx)
}

// Close closes the persistent backend. The in-memory store needs no cleanup.
func (t *TieredStore) Close() error {
	return t.persistent.Close()
}
