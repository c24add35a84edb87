package throttle

import (
	"fmt"
	"time"

	"github.com/ryhazerus/throttle/store"
)

// Result is the outcome of an admission check.
type Result struct {
	// Allowed reports whether the call may proceed.
	Allowed bool
	// Remaining is the number of calls left in the current window. Zero when denied.
	Remaining int64
	// RetryAfter is the whole number of seconds until the key is admitted
	// again. Set only when the call is denied.
	RetryAfter int64
	// Message is a user-facing explanation. Set only when the call is denied.
	Message string
}

// RetryAfterDuration returns RetryAfter as a time.Duration.
func (r Result) RetryAfterDuration() time.Duration {
	return time.Duration(r.RetryAfter) * time.Second
}

// evaluate decides a single call against the stored entry. It returns the
// entry to write back, the result, and whether a write is needed.
func evaluate(e store.Entry, found bool, now time.Time, cfg Config) (store.Entry, Result, bool) {
	if found && e.Blocked && e.BlockedUntil.After(now) {
		return e, denied(e.BlockedUntil.Sub(now)), false
	}

	if !found || now.Sub(e.FirstRequest) > cfg.Window {
		e = store.Entry{FirstRequest: now}
	}

	if e.Count >= cfg.MaxRequests {
		d := min(cfg.BlockDuration, maxBlockDuration)
		if cfg.ExponentialBackoff && e.Blocked {
			d = min(2*d, maxBlockDuration)
		}
		e.Blocked = true
		e.BlockedUntil = now.Add(d)
		e.LastRequest = now
		return e, denied(d), true
	}

	e.Count++
	e.LastRequest = now
	return e, Result{Allowed: true, Remaining: cfg.MaxRequests - e.Count}, true
}

func denied(wait time.Duration) Result {
	secs := ceilSeconds(wait)
	return Result{
		Allowed:    false,
		Remaining:  0,
		RetryAfter: secs,
		Message:    fmt.Sprintf("Too many requests. Please try again in %s.", formatWait(secs)),
	}
}

func ceilSeconds(d time.Duration) int64 {
	return int64((d + time.Second - 1) / time.Second)
}

// formatWait renders a wait in the coarsest whole unit, rounding up.
func formatWait(secs int64) string {
	switch {
	case secs < 60:
		return fmt.Sprintf("%d seconds", secs)
	case secs < 3600:
		return fmt.Sprintf("%d minutes", (secs+59)/60)
	default:
		return fmt.Sprintf("%d hours", (secs+3599)/3600)
	}
}
