package store

import (
	"context"
	"time"
)

// Entry is the throttling state for one key.
type Entry struct {
	// Count is the number of calls observed in the current window.
	Count int64
	// FirstRequest is when the current window started.
	FirstRequest time.Time
	// LastRequest is the most recent observed call. Idle eviction uses it.
	LastRequest time.Time
	// Blocked reports whether a penalty has been issued for this entry.
	Blocked bool
	// BlockedUntil is when the penalty expires. Zero unless Blocked.
	BlockedUntil time.Time
}

// Store defines the interface for throttle entry backends.
//
// Implementations only need each call to be atomic on its own; the limiter
// serialises the read-modify-write of an admission check.
type Store interface {
	// Get returns the entry stored under key. found is false when there is none.
	Get(ctx context.Context, key string) (e Entry, found bool, err error)

	// Put creates or replaces the entry for key.
	Put(ctx context.Context, key string, e Entry) error

	// Delete removes the entry for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteIdle removes every entry whose LastRequest is before cutoff and
	// reports how many were removed.
	DeleteIdle(ctx context.Context, cutoff time.Time) (int, error)

	// List returns a snapshot of all stored entries keyed by key.
	List(ctx context.Context) (map[string]Entry, error)

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
