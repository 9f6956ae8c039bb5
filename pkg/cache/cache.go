package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a generic TTL key/value store.
type Cache interface {
	// Set stores a value under key for ttl.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Get unmarshals the stored value into target; ErrMiss if absent.
	Get(ctx context.Context, key string, target interface{}) error
	// Delete removes the key.
	Delete(ctx context.Context, key string) error
}
