// Package ratelimit holds the in-process token bucket used when Redis is not
// available. Buckets are per process, so limits are not shared across replicas.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/storefront/commerce-api/internal/core/ports"
)

const idleEviction = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Local keeps one rate.Limiter per key.
type Local struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity int
	every    rate.Limit
	now      func() time.Time
}

// NewLocal returns a limiter allowing bursts of capacity requests per key and
// refilling one token every interval.
func NewLocal(capacity int, interval time.Duration) *Local {
	if capacity < 1 {
		capacity = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Local{
		buckets:  make(map[string]*bucket),
		capacity: capacity,
		every:    rate.Every(interval),
		now:      time.Now,
	}
}

var _ ports.RateLimiter = (*Local)(nil)

func (l *Local) Allow(_ context.Context, key string) (ports.RateDecision, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.every, l.capacity)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return ports.RateDecision{Allowed: false, RetryAfter: delay}, nil
	}
	return ports.RateDecision{Allowed: true, Remaining: int(b.limiter.TokensAt(now))}, nil
}

// Run evicts idle buckets until ctx is cancelled.
func (l *Local) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evict(l.now().Add(-idleEviction))
		}
	}
}

func (l *Local) evict(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}
