package store

import (
	"context"
	"testing"
)

func newTestTieredStore(t *testing.T) *TieredStore {
	t.Helper()
	persistent, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	ts := NewTieredStore(persistent)
	t.Cleanup(func() { ts.Close() })
	return ts
}

func TestTieredStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store { return newTestTieredStore(t) })
}

func TestTieredStorePersistentFallback(t *testing.T) {
	persistent, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer persistent.Close()

	ctx := context.Background()

	// Write data through a tiered store.
	ts1 := NewTieredStore(persistent)
	ts1.Put(ctx, "key", sampleEntry(0))

	// Simulate memory loss by creating a new tiered store with the same
	// persistent backend but a fresh MemoryStore.
	ts2 := NewTieredStore(persistent)

	got, found, err := ts2.Get(ctx, "key")
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("persistent fallback: entry not found")
	}
	assertEntry(t, got, sampleEntry(0))

	// The miss backfilled memory.
	if _, found, _ := ts2.memory.Get(ctx, "key"); !found {
		t.Error("memory was not backfilled after a persistent hit")
	}
}
