package store

import (
	"context"
	"testing"
	"time"
)

var base = time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)

func sampleEntry(offset time.Duration) Entry {
	return Entry{
		Count:        2,
		FirstRequest: base,
		LastRequest:  base.Add(offset),
	}
}

// runStoreTests exercises the behaviour every backend must share.
func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, found, err := s.Get(context.Background(), "missing")
		if err != nil {
			t.Fatal(err)
		}
		if found {
			t.Error("found = true for a key that was never written")
		}
	})

	t.Run("put then get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		want := Entry{
			Count:        5,
			FirstRequest: base,
			LastRequest:  base.Add(10 * time.Second),
			Blocked:      true,
			BlockedUntil: base.Add(5 * time.Minute),
		}
		if err := s.Put(ctx, "auth:anon:abc", want); err != nil {
			t.Fatal(err)
		}

		got, found, err := s.Get(ctx, "auth:anon:abc")
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Fatal("found = false after put")
		}
		assertEntry(t, got, want)
	})

	t.Run("put replaces", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		s.Put(ctx, "key", sampleEntry(0))

		want := Entry{Count: 1, FirstRequest: base.Add(time.Hour), LastRequest: base.Add(time.Hour)}
		if err := s.Put(ctx, "key", want); err != nil {
			t.Fatal(err)
		}
		got, _, _ := s.Get(ctx, "key")
		assertEntry(t, got, want)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		s.Put(ctx, "key", sampleEntry(0))

		if err := s.Delete(ctx, "key"); err != nil {
			t.Fatal(err)
		}
		if _, found, _ := s.Get(ctx, "key"); found {
			t.Error("entry still present after delete")
		}
		if err := s.Delete(ctx, "key"); err != nil {
			t.Errorf("deleting a missing key: %v", err)
		}
	})

	t.Run("delete idle", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		s.Put(ctx, "old", sampleEntry(0))
		s.Put(ctx, "fresh", sampleEntry(time.Hour))

		n, err := s.DeleteIdle(ctx, base.Add(30*time.Minute))
		if err != nil {
			t.Fatal(err)
		}
		if n != 1 {
			t.Errorf("evicted = %d, want 1", n)
		}
		if _, found, _ := s.Get(ctx, "old"); found {
			t.Error("idle entry survived")
		}
		if _, found, _ := s.Get(ctx, "fresh"); !found {
			t.Error("recent entry was evicted")
		}
	})

	t.Run("list and clear", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		s.Put(ctx, "a", sampleEntry(0))
		s.Put(ctx, "b", sampleEntry(time.Second))

		all, err := s.List(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 2 {
			t.Fatalf("list returned %d entries, want 2", len(all))
		}
		assertEntry(t, all["b"], sampleEntry(time.Second))

		if err := s.Clear(ctx); err != nil {
			t.Fatal(err)
		}
		all, _ = s.List(ctx)
		if len(all) != 0 {
			t.Errorf("list after clear returned %d entries", len(all))
		}
	})
}

func assertEntry(t *testing.T, got, want Entry) {
	t.Helper()
	if got.Count != want.Count {
		t.Errorf("Count = %d, want %d", got.Count, want.Count)
	}
	if !got.FirstRequest.Equal(want.FirstRequest) {
		t.Errorf("FirstRequest = %v, want %v", got.FirstRequest, want.FirstRequest)
	}
	if !got.LastRequest.Equal(want.LastRequest) {
		t.Errorf("LastRequest = %v, want %v", got.LastRequest, want.LastRequest)
	}
	if got.Blocked != want.Blocked {
		t.Errorf("Blocked = %v, want %v", got.Blocked, want.Blocked)
	}
	if !got.BlockedUntil.Equal(want.BlockedUntil) {
		t.Errorf("BlockedUntil = %v, want %v", got.BlockedUntil, want.BlockedUntil)
	}
}
