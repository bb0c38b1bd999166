// Package ratelimit provides per-client token bucket rate limiting.
package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	tokens     float64
	lastRefill time.Time
	lastAccess time.Time
}

// Info describes the limiter's view of one decision.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter hands out tokens per client identifier. Buckets refill at a
// steady rate up to a burst capacity; idle buckets are evicted by a
// background sweep.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	rate  float64
	burst int

	stop chan struct{}
	once sync.Once
}

// New creates a limiter allowing ratePerSecond sustained requests with
// the given burst capacity per client.
func New(ratePerSecond float64, burst int) *Limiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 5
	}
	if burst <= 0 {
		burst = 10
	}
	l := &Limiter{
		buckets: make(map[string]*bucket),
		rate:    ratePerSecond,
		burst:   burst,
		stop:    make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Allow consumes one token for the client if available.
func (l *Limiter) Allow(clientID string) Info {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[clientID]
	if !ok {
		b = &bucket{tokens: float64(l.burst), lastRefill: now}
		l.buckets[clientID] = b
	}

	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = min(float64(l.burst), b.tokens+elapsed*l.rate)
	b.lastRefill = now
	b.lastAccess = now

	info := Info{Limit: l.burst}
	if b.tokens >= 1.0 {
		b.tokens--
		info.Allowed = true
		info.Remaining = int(b.tokens)
		return info
	}
	info.RetryAfter = time.Duration((1.0 - b.tokens) / l.rate * float64(time.Second))
	return info
}

// Stop terminates the background sweep.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// sweep drops buckets idle for more than ten minutes.
func (l *Limiter) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for id, b := range l.buckets {
				if now.Sub(b.lastAccess) > 10*time.Minute {
					delete(l.buckets, id)
				}
			}
			l.mu.Unlock()
		}
	}
}
