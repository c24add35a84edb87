package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ryhazerus/throttle/store"
)

// Compile-time interface check.
var _ store.Store = (*RedisStore)(nil)

const keyPrefix = "throttle:"

// RedisStore is a Store backed by Redis. Each throttle key is stored as a
// Redis hash with fields "count", "first_request", "last_request", "blocked"
// and "blocked_until" (timestamps in Unix milliseconds). Every write refreshes
// a TTL equal to the retention so idle keys expire without a sweep.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisStore creates a new Redis-backed store. A retention of zero
// disables key expiry. A retention under one hour can expire a key whose
// block is still active.
func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{client: client, retention: retention}
}

// putScript writes all fields and refreshes the TTL in one round trip.
//
// KEYS[1] = entry key
// ARGV[1..5] = count, first_request, last_request, blocked, blocked_until
// ARGV[6] = ttl in milliseconds (0 = no expiry)
var putScript = redis.NewScript(`
local key = KEYS[1]
redis.call("HSET", key,
    "count", ARGV[1],
    "first_request", ARGV[2],
    "last_request", ARGV[3],
    "blocked", ARGV[4],
    "blocked_until", ARGV[5])
local ttl = tonumber(ARGV[6])
if ttl > 0 then
    redis.call("PEXPIRE", key, ttl)
end
return 1
`)

// Get returns the entry for key.
func (r *RedisStore) Get(ctx context.Context, key string) (store.Entry, bool, error) {
	vals, err := r.client.HGetAll(ctx, redisKey(key)).Result()
	if err != nil {
		return store.Entry{}, false, fmt.Errorf("throttle/store/redis: get: %w", err)
	}
	if len(vals) == 0 {
		return store.Entry{}, false, nil
	}

	e, err := parseEntry(vals)
	if err != nil {
		return store.Entry{}, false, fmt.Errorf("throttle/store/redis: get: %w", err)
	}
	return e, true, nil
}

// Put creates or replaces the entry for key.
func (r *RedisStore) Put(ctx context.Context, key string, e store.Entry) error {
	blocked := 0
	if e.Blocked {
		blocked = 1
	}
	err := putScript.Run(ctx, r.client, []string{redisKey(key)},
		e.Count,
		toMillis(e.FirstRequest),
		toMillis(e.LastRequest),
		blocked,
		toMillis(e.BlockedUntil),
		r.retention.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("throttle/store/redis: put: %w", err)
	}
	return nil
}

// Delete removes the entry for the given key.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, redisKey(key)).Err()
}

// DeleteIdle removes entries last seen before cutoff. Keys normally expire on
// their own; this catches entries written with retention disabled.
func (r *RedisStore) DeleteIdle(ctx context.Context, cutoff time.Time) (int, error) {
	n := 0
	limit := toMillis(cutoff)
	err := r.scan(ctx, func(key string) error {
		last, err := r.client.HGet(ctx, key, "last_request").Int64()
		if err == redis.Nil {
			return nil
		}
		if err != nil {
			return err
		}
		if last >= limit {
			return nil
		}
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("throttle/store/redis: delete idle: %w", err)
	}
	return n, nil
}

// List returns all entries under the store's key prefix.
func (r *RedisStore) List(ctx context.Context) (map[string]store.Entry, error) {
	out := make(map[string]store.Entry)
	err := r.scan(ctx, func(key string) error {
		vals, err := r.client.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(vals) == 0 {
			return nil
		}
		e, err := parseEntry(vals)
		if err != nil {
			return err
		}
		out[key[len(keyPrefix):]] = e
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("throttle/store/redis: list: %w", err)
	}
	return out, nil
}

// Clear removes every key under the store's prefix.
func (r *RedisStore) Clear(ctx context.Context) error {
	err := r.scan(ctx, func(key string) error {
		return r.client.Del(ctx, key).Err()
	})
	if err != nil {
		return fmt.Errorf("throttle/store/redis: clear: %w", err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) scan(ctx context.Context, fn func(key string) error) error {
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := fn(iter.Val()); err != nil {
			return err
		}
	}
	return iter.Err()
}

func parseEntry(vals map[string]string) (store.Entry, error) {
	var e store.Entry
	count, err := strconv.ParseInt(vals["count"], 10, 64)
	if err != nil {
		return e, fmt.Errorf("parse count: %w", err)
	}
	first, err := parseMillis(vals["first_request"])
	if err != nil {
		return e, fmt.Errorf("parse first_request: %w", err)
	}
	last, err := parseMillis(vals["last_request"])
	if err != nil {
		return e, fmt.Errorf("parse last_request: %w", err)
	}
	until, err := parseMillis(vals["blocked_until"])
	if err != nil {
		return e, fmt.Errorf("parse blocked_until: %w", err)
	}

	e.Count = count
	e.FirstRequest = first
	e.LastRequest = last
	e.Blocked = vals["blocked"] == "1"
	e.BlockedUntil = until
	return e, nil
}

func parseMillis(s string) (time.Time, error) {
	if s == "" || s == "0" {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func redisKey(key string) string {
	return keyPrefix + key
}
