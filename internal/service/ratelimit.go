package service

import (
	"sync"
	"time"
)

// LoginLimiter throttles credential-exchange attempts per client key using
// token buckets. It is safe for concurrent use; idle buckets are pruned
// lazily on each Allow call, so no background goroutine is needed.
type LoginLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*loginBucket
	rate      float64 // tokens refilled per second
	burst     float64 // bucket capacity
	lastPrune time.Time
}

type loginBucket struct {
	tokens float64
	seen   time.Time
}

const loginBucketIdle = 10 * time.Minute

// NewLoginLimiter allows burst attempts per key, refilling at rate
// attempts per second.
func NewLoginLimiter(rate, burst float64) *LoginLimiter {
	return &LoginLimiter{
		buckets:   make(map[string]*loginBucket),
		rate:      rate,
		burst:     burst,
		lastPrune: time.Now(),
	}
}

// Allow consumes one attempt for key and reports whether it is within the
// limit.
func (l *LoginLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastPrune) > loginBucketIdle {
		for k, b := range l.buckets {
			if now.Sub(b.seen) > loginBucketIdle {
				delete(l.buckets, k)
			}
		}
		l.lastPrune = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &loginBucket{tokens: l.burst, seen: now}
		l.buckets[key] = b
	}

	b.tokens = min(b.tokens+now.Sub(b.seen).Seconds()*l.rate, l.burst)
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
