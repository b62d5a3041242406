/*
Package limiter provides per-key rate limiting for outbound events.

It utilizes the Token Bucket algorithm (rate.Limiter) to control how often an event
may be emitted for each key (for example a conversation id), and includes a cleanup
goroutine that periodically removes idle limiters, preventing unbounded growth.
*/
package limiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"chatterm/internal/pkg/logx"
)

// DefaultCleanupInterval is how often idle limiters are swept.
const DefaultCleanupInterval = 3 * time.Minute

// KeyedLimiter implements a concurrency-safe rate limiter with one token bucket per key.
type KeyedLimiter[K comparable] struct {
	// mu is used to protect concurrent access to the limits map.
	mu sync.RWMutex

	// limits stores the map from key to the *rate.Limiter instance.
	limits map[K]*rate.Limiter

	// r is the rate (rate.Limit) of each limiter, defining the number of events allowed per second.
	r rate.Limit

	// b is the burst size (token bucket size) of each limiter.
	b int

	// stop terminates the cleanup goroutine.
	stop chan struct{}

	// stopOnce guards close(stop).
	stopOnce sync.Once
}

// NewKeyedLimiter creates and returns a new KeyedLimiter instance.
// It accepts rate r and burst capacity b, and starts a background goroutine that
// sweeps idle limiters every cleanupInterval. Call Stop to release the goroutine.
func NewKeyedLimiter[K comparable](r rate.Limit, b int, cleanupInterval time.Duration) *KeyedLimiter[K] {
	l := &KeyedLimiter[K]{
		limits: make(map[K]*rate.Limiter),
		r:      r,
		b:      b,
		stop:   make(chan struct{}),
	}

	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	go l.cleanUpIdle(cleanupInterval)

	return l
}

// GetLimiter retrieves the rate limiter for key, creating it on first use.
// It uses a Double-Checked Locking pattern to ensure concurrent-safe creation of new limiters.
func (l *KeyedLimiter[K]) GetLimiter(key K) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limits[key]
	l.mu.RUnlock()

	if !exists {
		l.mu.Lock()
		limiter, exists = l.limits[key]
		if !exists {
			limiter = rate.NewLimiter(l.r, l.b)
			l.limits[key] = limiter
		}
		l.mu.Unlock()
	}

	return limiter
}

// Allow reports whether an event for key may happen now, consuming a token if so.
func (l *KeyedLimiter[K]) Allow(key K) bool {
	return l.GetLimiter(key).Allow()
}

// Len returns the number of tracked keys.
func (l *KeyedLimiter[K]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.limits)
}

// Stop terminates the cleanup goroutine. It is safe to call more than once.
func (l *KeyedLimiter[K]) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// cleanUpIdle periodically removes limiters whose bucket is full again,
// i.e. keys that have not been used for at least one refill period.
func (l *KeyedLimiter[K]) cleanUpIdle(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			removed, remaining := l.sweep(now)
			if removed > 0 {
				logx.Debug("Limiter cleanup removed idle keys", "removed", removed, "remaining", remaining)
			}
		}
	}
}

// sweep deletes idle limiters as of now and returns how many were removed and how many remain.
func (l *KeyedLimiter[K]) sweep(now time.Time) (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for key, limiter := range l.limits {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(l.limits, key)
			count++
		}
	}

	return count, len(l.limits)
}
