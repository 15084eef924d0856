package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter answers whether a key may act now. When the window is already
// taken, retryAfter says how long the caller should wait.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// RedisLimiter is a fixed window per key: the first SetNX within the TTL
// wins, everyone else is rejected until the key expires.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, prefix string, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	full := fmt.Sprintf("%s:%s", l.prefix, key)

	ok, err := l.rdb.SetNX(ctx, full, 1, l.window).Result()
	if err != nil {
		// Fail open: an unavailable limiter must not block the endpoint.
		return true, 0, err
	}
	if ok {
		return true, 0, nil
	}

	ttl, err := l.rdb.TTL(ctx, full).Result()
	if err != nil || ttl < 0 {
		ttl = l.window
	}
	return false, ttl, nil
}

// MemoryLimiter is the single-process fallback: a bounded map of last-seen
// timestamps with stale entries evicted on each pass.
type MemoryLimiter struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		seen:   make(map[string]time.Time),
		window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, t := range l.seen {
		if now.Sub(t) >= l.window {
			delete(l.seen, k)
		}
	}

	if t, ok := l.seen[key]; ok {
		return false, l.window - now.Sub(t), nil
	}
	l.seen[key] = now
	return true, 0, nil
}
