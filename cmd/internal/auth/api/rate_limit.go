package authapi

import (
	"sync"
	"time"
)

// rateLimiter is a sliding-window event limiter.
type rateLimiter struct {
	mu     sync.Mutex
	events []time.Time
	limit  int
	window time.Duration
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		events: make([]time.Time, 0, limit+8),
		limit:  limit,
		window: window,
	}
}

// allow reports whether an event at time "now" should be permitted.
func (r *rateLimiter) allow(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cut := now.Add(-r.window)
	dst := r.events[:0]
	for _, t := range r.events {
		if t.After(cut) {
			dst = append(dst, t)
		}
	}
	r.events = dst

	if len(r.events) >= r.limit {
		return false
	}
	r.events = append(r.events, now)
	return true
}

// loginThrottle keys sliding windows by client IP. Entries are dropped lazily
// once their window has fully drained, bounding memory on churny traffic.
type loginThrottle struct {
	mu       sync.Mutex
	limiters map[string]*rateLimiter
	limit    int
	window   time.Duration

	lastSweep time.Time
}

func newLoginThrottle(limit int, window time.Duration) *loginThrottle {
	if limit <= 0 {
		limit = 20
	}
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &loginThrottle{
		limiters: make(map[string]*rateLimiter),
		limit:    limit,
		window:   window,
	}
}

// allow reports whether the given client may attempt a login now.
func (t *loginThrottle) allow(key string, now time.Time) bool {
	t.mu.Lock()
	if now.Sub(t.lastSweep) > t.window {
		t.sweepLocked(now)
		t.lastSweep = now
	}
	rl := t.limiters[key]
	if rl == nil {
		rl = newRateLimiter(t.limit, t.window)
		t.limiters[key] = rl
	}
	t.mu.Unlock()

	return rl.allow(now)
}

func (t *loginThrottle) sweepLocked(now time.Time) {
	cut := now.Add(-t.window)
	for key, rl := range t.limiters {
		rl.mu.Lock()
		stale := len(rl.events) == 0 || !rl.events[len(rl.events)-1].After(cut)
		rl.mu.Unlock()
		if stale {
			delete(t.limiters, key)
		}
	}
}
