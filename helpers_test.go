package throttle

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// newTestLimiter returns a limiter on a fake clock with the background sweep
// disabled.
func newTestLimiter(t *testing.T, opts ...Option) (*Limiter, *fakeClock) {
	t.Helper()
	clk := newFakeClock()
	opts = append([]Option{WithClock(clk.Now), WithCleanupInterval(0)}, opts...)
	l := New(opts...)
	t.Cleanup(func() { l.Destroy(context.Background()) })
	return l, clk
}

func mustCheck(t *testing.T, l *Limiter, category string, cfg Config, userID string) Result {
	t.Helper()
	res, err := l.Check(context.Background(), category, cfg, userID)
	if err != nil {
		t.Fatalf("check %s: %v", category, err)
	}
	return res
}
