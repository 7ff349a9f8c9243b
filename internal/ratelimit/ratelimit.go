package ratelimit

import (
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter provides in-memory rate limiting keyed by an arbitrary string,
// typically user id + action. Process-local only.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// New creates a keyed limiter allowing r events per second with the given burst
func New(r rate.Limit, burst int) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

// PerMinute creates a keyed limiter allowing n events per minute
func PerMinute(n int) *Limiter {
	return New(rate.Limit(float64(n)/60.0), 1)
}

// Key builds the canonical limiter key for a user and action
func Key(userID uint, action string) string {
	return fmt.Sprintf("%d:%s", userID, action)
}

// Allow reports whether the event keyed by key may proceed now
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[key] = limiter
	}

	return limiter.Allow()
}
