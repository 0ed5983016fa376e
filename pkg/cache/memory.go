package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value    []byte
	expireAt time.Time
}

func (m memoryItem) expired() bool {
	return !m.expireAt.IsZero() && time.Now().After(m.expireAt)
}

// MemoryCache is a process-local Cache with periodic expiry sweeps.
// Suitable for single-instance deployments and tests.
type MemoryCache struct {
	mu     sync.RWMutex
	data   map[string]memoryItem
	sweep  *time.Ticker
	closed chan struct{}
}

// NewMemoryCache creates a memory cache sweeping expired entries at the
// given interval.
func NewMemoryCache(sweepInterval time.Duration) *MemoryCache {
	mc := &MemoryCache{
		data:   make(map[string]memoryItem),
		sweep:  time.NewTicker(sweepInterval),
		closed: make(chan struct{}),
	}
	go mc.run()
	return mc
}

func (mc *MemoryCache) run() {
	for {
		select {
		case <-mc.closed:
			return
		case <-mc.sweep.C:
			mc.mu.Lock()
			for k, it := range mc.data {
				if it.expired() {
					delete(mc.data, k)
				}
			}
			mc.mu.Unlock()
		}
	}
}

func (mc *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	mc.mu.RLock()
	it, ok := mc.data[key]
	mc.mu.RUnlock()
	if !ok || it.expired() {
		return nil, false, nil
	}
	return it.value, true, nil
}

func (mc *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expireAt time.Time
	if ttl > 0 {
		expireAt = time.Now().Add(ttl)
	}
	mc.mu.Lock()
	mc.data[key] = memoryItem{value: value, expireAt: expireAt}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	for _, k := range keys {
		delete(mc.data, k)
	}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Close() error {
	mc.sweep.Stop()
	close(mc.closed)
	return nil
}

var _ Cache = (*MemoryCache)(nil)
