package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss signals a cache miss in a typed way so callers can tell misses
// apart from transport errors.
var ErrMiss = errors.New("cache: miss")

// Cache is the minimal key-value contract used by the application.
// Implementations must be concurrency-safe.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Close() error
}
