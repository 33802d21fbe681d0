package rate

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter: fixed window en proceso, para deploys sin redis.
type MemoryLimiter struct {
	Max    int64
	Window time.Duration

	mu   sync.Mutex
	hits map[string]*window
}

type window struct {
	start time.Time
	count int64
}

func NewMemoryLimiter(max int, win time.Duration) *MemoryLimiter {
	return &MemoryLimiter{Max: int64(max), Window: win, hits: make(map[string]*window)}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.hits[key]
	if !ok || now.Sub(w.start) >= l.Window {
		w = &window{start: now.Truncate(l.Window)}
		l.hits[key] = w
	}
	w.count++

	allowed := w.count <= l.Max
	remaining := l.Max - w.count
	if remaining < 0 {
		remaining = 0
	}
	res := Result{Allowed: allowed, Remaining: remaining, CurrentHits: w.count}
	if !allowed {
		res.RetryAfter = w.start.Add(l.Window).Sub(now)
	}
	return res, nil
}
