package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys with optional expiry.
// A Get miss returns (nil, nil); errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value. A non-positive expiration means no expiry.
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error

	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	Close() error

	// Health reports whether the backend is reachable.
	Health(ctx context.Context) error
}

// CacheError wraps a backend failure with the operation and key involved.
type CacheError struct {
	Operation string
	Key       string
	Err       error
}

func (e *CacheError) Error() string {
	return "cache " + e.Operation + " failed for key '" + e.Key + "': " + e.Err.Error()
}

func (e *CacheError) Unwrap() error {
	return e.Err
}
