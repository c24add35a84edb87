package throttle

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ryhazerus/throttle/store"
)

// Option configures the Limiter.
type Option func(*Limiter)

// WithStore sets the backing store for entries.
// If not provided, an in-memory store is used by default.
func WithStore(s store.Store) Option {
	return func(l *Limiter) {
		l.store = s
	}
}

// WithClock replaces time.Now as the limiter's time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// WithEnvironment derives the limiter's fingerprint from env.
func WithEnvironment(env *Environment) Option {
	return func(l *Limiter) {
		l.fingerprint = Fingerprint(env)
	}
}

// WithFingerprint sets a precomputed fingerprint.
func WithFingerprint(fp string) Option {
	return func(l *Limiter) {
		if fp != "" {
			l.fingerprint = fp
		}
	}
}

// WithConfigs replaces the category table used by CheckCategory and the
// transport. See LoadConfigs.
func WithConfigs(configs map[string]Config) Option {
	return func(l *Limiter) {
		if configs != nil {
			l.configs = configs
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Limiter) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMetrics registers the limiter's collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(l *Limiter) {
		l.metrics = NewMetrics(reg)
	}
}

// WithCleanupInterval sets how often idle entries are swept. Zero disables
// the background sweep; Sweep can still be called directly.
func WithCleanupInterval(d time.Duration) Option {
	return func(l *Limiter) {
		if d >= 0 {
			l.cleanupInterval = d
		}
	}
}

// WithRetention sets how long an entry may sit idle before a sweep removes it.
// Blocks never exceed one hour; a retention shorter than that lets a sweep
// evict an entry whose block is still active.
func WithRetention(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.retention = d
		}
	}
}

// WithOnLimitReached sets a callback that fires whenever a block is issued.
// It runs while the limiter's lock is held and must not call back into it.
func WithOnLimitReached(fn func(key string, r Result)) Option {
	return func(l *Limiter) {
		l.onLimitReached = fn
	}
}
