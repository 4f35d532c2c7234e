package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a key-value cache with TTL expiry and coarse memory accounting.
type Store interface {
	// Get returns the value for key, or ErrMiss.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// MemoryUsage returns the approximate number of bytes held.
	MemoryUsage(ctx context.Context) (int64, error)
	// FlushAll discards every entry.
	FlushAll(ctx context.Context) error
	// Close releases any underlying resources.
	Close() error
}
