// Package memory is an in-process cache.Cache for single-instance runs and
// tests. It uses the same tagged encoding as the redis adapter.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Miraines/MoonyAndStarry/user-service/internal/domain/auth/cache"
)

type entry struct {
	payload   string
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]entry), now: time.Now}
}

func (m *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	payload, err := cache.Encode(value)
	if err != nil {
		return err
	}
	e := entry{payload: payload}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.items[key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Get(_ context.Context, key string) (cache.Value, error) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || e.payload == "" {
		return cache.Value{}, cache.ErrMiss
	}
	if e.expired(m.now()) {
		m.mu.Lock()
		if cur, ok := m.items[key]; ok && cur.expired(m.now()) {
			delete(m.items, key)
		}
		m.mu.Unlock()
		return cache.Value{}, cache.ErrMiss
	}
	return cache.Decode(e.payload), nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok {
		return 0, nil
	}
	delete(m.items, key)
	if e.expired(m.now()) {
		return 0, nil
	}
	return 1, nil
}

func (m *MemoryCache) Ping(context.Context) error { return nil }

// Len reports the number of stored entries, expired ones included until swept.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Sweep drops expired entries.
func (m *MemoryCache) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k, e := range m.items {
		if e.expired(now) {
			delete(m.items, k)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps every interval until ctx is done.
func (m *MemoryCache) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
