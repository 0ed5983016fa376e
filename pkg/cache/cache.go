package cache

import (
	"context"
	"time"
)

// Cache stores raw bytes under string keys with per-entry TTL. The byte
// payloads are already-encoded JSON responses; the cache never inspects
// them.
type Cache interface {
	Get(ctx context.Context, key string) (b []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
