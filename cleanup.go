package throttle

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Sweep removes entries idle for longer than the retention period and
// reports how many were removed. The background sweeper calls it on every
// tick; it can also be run by hand.
//
// With a retention of at least the longest block duration, eviction never
// changes a decision: an idle entry's window and block have both expired.
func (l *Limiter) Sweep(ctx context.Context) (int, error) {
	start := time.Now()

	l.mu.Lock()
	cutoff := l.now().Add(-l.retention)
	n, err := l.store.DeleteIdle(ctx, cutoff)
	l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.observeSweep(n, err, time.Since(start))
	}
	if err != nil {
		return n, fmt.Errorf("throttle: sweep: %w", err)
	}
	return n, nil
}

func (l *Limiter) runCleanup(interval time.Duration) {
	defer close(l.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := l.Sweep(context.Background())
			if err != nil {
				l.logger.Error("throttle sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				l.logger.Info("throttle sweep completed", zap.Int("evicted", n))
			}
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) stopCleanup() {
	l.stopOnce.Do(func() { close(l.stop) })
	<-l.done
}
