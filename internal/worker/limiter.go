package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter spaces calls per key: one call per interval, no bursts.
// Concurrent callers on the same key are queued behind each other.
type Limiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	interval time.Duration
}

// NewLimiter creates a limiter enforcing minInterval between calls on a key.
// A zero or negative interval disables spacing.
func NewLimiter(minInterval time.Duration) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		interval: minInterval,
	}
}

// Wait blocks until a call on key is allowed or ctx is done
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.getLimiter(key).Wait(ctx)
}

// Allow reports whether a call on key may proceed now, consuming the slot if so
func (l *Limiter) Allow(key string) bool {
	return l.getLimiter(key).Allow()
}

// Interval returns the default spacing
func (l *Limiter) Interval() time.Duration {
	return l.interval
}

// getLimiter returns the rate limiter for a key
func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(every(l.interval), 1)
	l.limiters[key] = limiter

	return limiter
}

// SetInterval overrides the spacing for one key
func (l *Limiter) SetInterval(key string, interval time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.limiters[key] = rate.NewLimiter(every(interval), 1)
}

func every(interval time.Duration) rate.Limit {
	if interval <= 0 {
		return rate.Inf
	}
	return rate.Every(interval)
}
