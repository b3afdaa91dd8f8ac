package throttle

import (
	"context"
	"sync"
	"time"
)

const sweepInterval = 5 * time.Minute

// MemoryLimiter keeps a sliding window of attempt times per key in process
// memory. It suits a single instance; use RedisLimiter when several
// instances serve logins.
type MemoryLimiter struct {
	mu        sync.Mutex
	attempts  map[string][]time.Time
	limit     int
	window    time.Duration
	now       func() time.Time
	lastSweep time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter creates an in-memory limiter.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return NewMemoryLimiterWithClock(cfg, time.Now)
}

// NewMemoryLimiterWithClock creates an in-memory limiter reading time from now.
func NewMemoryLimiterWithClock(cfg Config, now func() time.Time) *MemoryLimiter {
	cfg.ApplyDefaults()
	return &MemoryLimiter{
		attempts:  make(map[string][]time.Time),
		limit:     cfg.MaxAttempts,
		window:    cfg.Window,
		now:       now,
		lastSweep: now(),
	}
}

// Allow records an attempt unless the key is already at its limit.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	l.maybeSweep(now, cutoff)

	valid := filterByTime(l.attempts[key], cutoff)
	if len(valid) >= l.limit {
		l.attempts[key] = valid
		return false, nil
	}
	l.attempts[key] = append(valid, now)
	return true, nil
}

// Reset forgets key.
func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, key)
	return nil
}

// RetryAfter reports how long until key may attempt again, or 0.
func (l *MemoryLimiter) RetryAfter(_ context.Context, key string) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	valid := filterByTime(l.attempts[key], now.Add(-l.window))
	if len(valid) < l.limit {
		return 0, nil
	}
	// The key frees up once enough of the oldest attempts age out.
	oldest := valid[len(valid)-l.limit]
	return oldest.Add(l.window).Sub(now), nil
}

// Len returns the number of keys currently tracked.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.attempts)
}

// maybeSweep drops keys whose attempts have all aged out. Called with mu held.
func (l *MemoryLimiter) maybeSweep(now, cutoff time.Time) {
	if now.Sub(l.lastSweep) < sweepInterval {
		return
	}
	l.lastSweep = now
	for key, times := range l.attempts {
		valid := filterByTime(times, cutoff)
		if len(valid) == 0 {
			delete(l.attempts, key)
		} else {
			l.attempts[key] = valid
		}
	}
}

func filterByTime(times []time.Time, cutoff time.Time) []time.Time {
	var result []time.Time
	for _, t := range times {
		if t.After(cutoff) {
			result = append(result, t)
		}
	}
	return result
}
