package throttle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ryhazerus/throttle/store"
)

// Defaults for the idle-entry sweep.
const (
	DefaultCleanupInterval = time.Minute
	DefaultRetention       = time.Hour
)

// ErrLimitExceeded is returned when a request is blocked by the limiter.
var ErrLimitExceeded = errors.New("throttle: rate limit exceeded")

// LimitExceededError carries the denial for a blocked request and supports
// waiting until the key is admitted again.
type LimitExceededError struct {
	Category string
	Result   Result
	retryAt  time.Time
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("throttle: %s: %s", e.Category, e.Result.Message)
}

func (e *LimitExceededError) Unwrap() error {
	return ErrLimitExceeded
}

// Wait blocks until the retry-after period elapses or the context is cancelled.
func (e *LimitExceededError) Wait(ctx context.Context) error {
	delay := time.Until(e.retryAt)
	if delay <= 0 {
		return nil
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Limiter throttles calls per (category, user, fingerprint) key. Construct it
// once with New, share it by pointer, and call Destroy or Close on shutdown to
// stop the background sweep.
type Limiter struct {
	// mu makes each check, reset and sweep a single critical section.
	mu    sync.Mutex
	store store.Store

	now             func() time.Time
	fingerprint     string
	configs         map[string]Config
	logger          *zap.Logger
	metrics         *Metrics
	onLimitReached  func(key string, r Result)
	cleanupInterval time.Duration
	retention       time.Duration

	routesMu sync.RWMutex
	routes   []Route

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Limiter with the given options and starts its cleanup sweep.
// If no store is provided, an in-memory store is used.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		now:             time.Now,
		fingerprint:     serverFingerprint,
		configs:         DefaultConfigs(),
		logger:          zap.NewNop(),
		cleanupInterval: DefaultCleanupInterval,
		retention:       DefaultRetention,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
	for _, o := range opts {
		o(l)
	}
	if l.store == nil {
		l.store = store.NewMemoryStore()
	}

	if l.cleanupInterval > 0 {
		go l.runCleanup(l.cleanupInterval)
	} else {
		close(l.done)
	}
	return l
}

// Config returns the configuration for category, falling back to the "api"
// entry for unknown categories.
func (l *Limiter) Config(category string) Config {
	if cfg, ok := l.configs[category]; ok {
		return cfg
	}
	if cfg, ok := l.configs[CategoryAPI]; ok {
		return cfg
	}
	return APIConfig
}

// Configs returns a copy of the limiter's category table.
func (l *Limiter) Configs() map[string]Config {
	out := make(map[string]Config, len(l.configs))
	for name, cfg := range l.configs {
		out[name] = cfg
	}
	return out
}

// Fingerprint returns the environment fingerprint used in every key.
func (l *Limiter) Fingerprint() string {
	return l.fingerprint
}

// Check decides whether a call in category may proceed under cfg, and records
// it. userID may be empty for anonymous callers.
//
// The decision itself cannot fail. A non-nil error means the store backend
// failed; the returned Result then allows the call.
func (l *Limiter) Check(ctx context.Context, category string, cfg Config, userID string) (Result, error) {
	key := Key(category, userID, l.fingerprint)

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, found, err := l.store.Get(ctx, key)
	if err != nil {
		l.logger.Error("throttle store get failed", zap.String("key", key), zap.Error(err))
		return Result{Allowed: true, Remaining: max(cfg.MaxRequests, 0)}, fmt.Errorf("throttle: store get: %w", err)
	}

	next, res, write := evaluate(entry, found, now, cfg)
	if write {
		if err := l.store.Put(ctx, key, next); err != nil {
			l.logger.Error("throttle store put failed", zap.String("key", key), zap.Error(err))
			return Result{Allowed: true, Remaining: max(cfg.MaxRequests, 0)}, fmt.Errorf("throttle: store put: %w", err)
		}
	}

	l.observe(category, key, res, write && !res.Allowed)
	return res, nil
}

// CheckCategory is Check with the limiter's configuration for category.
func (l *Limiter) CheckCategory(ctx context.Context, category, userID string) (Result, error) {
	return l.Check(ctx, category, l.Config(category), userID)
}

func (l *Limiter) observe(category, key string, res Result, blockIssued bool) {
	if l.metrics != nil {
		l.metrics.observeCheck(category, res.Allowed, blockIssued)
	}

	if res.Allowed {
		l.logger.Debug("throttle check allowed",
			zap.String("key", key),
			zap.Int64("remaining", res.Remaining),
		)
		return
	}

	if blockIssued {
		l.logger.Info("throttle block issued",
			zap.String("category", category),
			zap.String("key", key),
			zap.Int64("retry_after", res.RetryAfter),
		)
		if l.onLimitReached != nil {
			l.onLimitReached(key, res)
		}
		return
	}

	l.logger.Debug("throttle check denied",
		zap.String("key", key),
		zap.Int64("retry_after", res.RetryAfter),
	)
}

// Reset clears the throttling state for category and userID, so the next
// check starts a fresh window. Resetting an unknown key is a no-op.
func (l *Limiter) Reset(ctx context.Context, category, userID string) error {
	key := Key(category, userID, l.fingerprint)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("throttle: reset %s: %w", key, err)
	}
	if l.metrics != nil {
		l.metrics.Resets.WithLabelValues(category).Inc()
	}
	l.logger.Debug("throttle key reset", zap.String("key", key))
	return nil
}

// Entries returns a snapshot of every stored entry keyed by key.
func (l *Limiter) Entries(ctx context.Context) (map[string]store.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out, err := l.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("throttle: list entries: %w", err)
	}
	return out, nil
}

// Destroy stops the cleanup sweep and removes all entries. It is safe to call
// more than once.
func (l *Limiter) Destroy(ctx context.Context) error {
	l.stopCleanup()

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Clear(ctx); err != nil {
		return fmt.Errorf("throttle: clear store: %w", err)
	}
	return nil
}

// Close stops the cleanup sweep and releases the store. Persistent stores
// keep their entries.
func (l *Limiter) Close() error {
	l.stopCleanup()
	return l.store.Close()
}
