// Package ratelimit throttles the sensitive auth endpoints per IP and per email.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter admits a request only when every key still has room in its window,
// and then counts it against all of them. A rejected request is not counted.
type Limiter interface {
	Allow(ctx context.Context, keys ...string) (Result, error)
}

// Result of a limiter check.
type Result struct {
	Allowed bool
	// Exhausted is the first key without room; empty when Allowed.
	Exhausted string
}

// MemoryLimiter is a process-local sliding window limiter.
type MemoryLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	window   time.Duration
	maxReqs  int
	now      func() time.Time
}

// NewMemoryLimiter creates a limiter allowing maxReqs per window per key.
func NewMemoryLimiter(window time.Duration, maxReqs int) *MemoryLimiter {
	return &MemoryLimiter{
		requests: make(map[string][]time.Time),
		window:   window,
		maxReqs:  maxReqs,
		now:      time.Now,
	}
}

// WithClock overrides the time source; used by tests.
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, keys ...string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	for _, key := range keys {
		reqs, ok := l.requests[key]
		if !ok {
			continue
		}
		filtered := prune(reqs, cutoff)
		l.requests[key] = filtered
		if len(filtered) >= l.maxReqs {
			return Result{Exhausted: key}, nil
		}
	}
	for _, key := range keys {
		l.requests[key] = append(l.requests[key], now)
	}
	return Result{Allowed: true}, nil
}

// Sweep drops keys with no request inside the window.
func (l *MemoryLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	removed := 0
	for key, reqs := range l.requests {
		filtered := prune(reqs, cutoff)
		if len(filtered) == 0 {
			delete(l.requests, key)
			removed++
			continue
		}
		l.requests[key] = filtered
	}
	return removed
}

// Keys returns the number of tracked keys.
func (l *MemoryLimiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}

// Start runs Sweep every interval until ctx is done.
func (l *MemoryLimiter) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Sweep()
			}
		}
	}()
}

func prune(reqs []time.Time, cutoff time.Time) []time.Time {
	filtered := make([]time.Time, 0, len(reqs))
	for _, t := range reqs {
		if t.After(cutoff) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// RedisLimiter is a fixed window limiter shared by every replica.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// allowScript checks every key before counting any of them, so the decision
// and the increments happen atomically on the server. It returns the 1-based
// index of the exhausted key, or 0 when the request was admitted.
var allowScript = redis.NewScript(`
local limit = tonumber(ARGV[1])
for i, key in ipairs(KEYS) do
  local count = tonumber(redis.call('GET', key) or '0')
  if count >= limit then
    return i
  end
end
for _, key in ipairs(KEYS) do
  if redis.call('INCR', key) == 1 then
    redis.call('PEXPIRE', key, ARGV[2])
  end
end
return 0
`)

// NewRedisLimiter builds a limiter storing counters under prefix.
func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (r *RedisLimiter) Allow(ctx context.Context, keys ...string) (Result, error) {
	if len(keys) == 0 {
		return Result{Allowed: true}, nil
	}
	redisKeys := make([]string, len(keys))
	for i, key := range keys {
		redisKeys[i] = fmt.Sprintf("%s:%s", r.prefix, key)
	}
	idx, err := allowScript.Run(ctx, r.client, redisKeys, r.limit, r.window.Milliseconds()).Int()
	if err != nil {
		return Result{}, fmt.Errorf("rate limiter script: %w", err)
	}
	if idx > 0 && idx <= len(keys) {
		return Result{Exhausted: keys[idx-1]}, nil
	}
	return Result{Allowed: true}, nil
}
