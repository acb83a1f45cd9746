// Package ratelimit throttles mutating API requests per client address.
package ratelimit

import (
	"net/http"
	"sync"
	"time"
)

// Config bounds how many requests a single client may make per minute and
// how often idle client entries are swept out.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

// DefaultConfig allows 60 writes per minute per client.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
	}
}

// bucket is one client's fixed one-minute window.
type bucket struct {
	windowStart time.Time
	count       int
}

// Limiter counts requests per client in fixed one-minute windows. Entries for
// clients idle longer than ten minutes are swept by a background goroutine.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	limit    int
	sweepage time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter starts a limiter and its sweep goroutine.
func NewLimiter(cfg Config) *Limiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultConfig().CleanupInterval
	}

	l := &Limiter{
		buckets:  make(map[string]*bucket),
		limit:    cfg.RequestsPerMinute,
		sweepage: cfg.CleanupInterval,
		stop:     make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Allow reports whether a request from client fits in its current window.
func (l *Limiter) Allow(client string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[client]
	if !ok || now.Sub(b.windowStart) > time.Minute {
		l.buckets[client] = &bucket{windowStart: now, count: 1}
		return true
	}

	b.count++
	return b.count <= l.limit
}

// ActiveClients returns how many clients are currently tracked.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop terminates the sweep goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.sweepage)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) sweep() {
	cutoff := time.Now().Add(-10 * time.Minute)

	l.mu.Lock()
	defer l.mu.Unlock()
	for client, b := range l.buckets {
		if b.windowStart.Before(cutoff) {
			delete(l.buckets, client)
		}
	}
}

// Middleware wraps a handler with the limiter. extractIP resolves the client
// key from the request; onLimit writes the rejection response, falling back
// to a plain 429 when nil.
func (l *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(extractIP(r)) {
				if onLimit != nil {
					onLimit(w, r)
					return
				}
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
