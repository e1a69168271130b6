// Package ratelimit keeps one token bucket per client key. Keys idle for
// longer than the configured TTL are forgotten, as are the least recently
// seen keys once the table is full.
package ratelimit

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	DefaultSize = 10_000
	DefaultIdle = time.Hour
)

type Limiter struct {
	mu       sync.Mutex
	visitors *expirable.LRU[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

// New allows rps requests per second per key with the given burst.
func New(rps float64, burst, size int, idle time.Duration) *Limiter {
	if size <= 0 {
		size = DefaultSize
	}
	if idle <= 0 {
		idle = DefaultIdle
	}
	return &Limiter{
		visitors: expirable.NewLRU[string, *rate.Limiter](size, nil, idle),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

// Allow takes one token from key's bucket.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	v, ok := l.visitors.Get(key)
	if !ok {
		v = rate.NewLimiter(l.limit, l.burst)
	}
	// re-adding refreshes the idle deadline
	l.visitors.Add(key, v)
	l.mu.Unlock()

	return v.Allow()
}

// Len is the number of keys currently tracked.
func (l *Limiter) Len() int {
	return l.visitors.Len()
}
