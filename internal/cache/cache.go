// Package cache provides the TTL-gated get-or-refresh cache used for
// process-wide lookups such as workflow status labels and the planning
// mention contact.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrCacheMiss is returned by a Store when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Store holds opaque values with an expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RefreshFunc loads a fresh value when the cached one is missing or stale.
type RefreshFunc[T any] func(ctx context.Context) (T, error)

// GetOrRefresh returns the cached value for key, calling refresh and storing
// its result for ttl when nothing usable is cached. A value that cannot be
// decoded is treated as a miss. Store write failures are returned together
// with the fresh value so callers may log and continue.
func GetOrRefresh[T any](ctx context.Context, store Store, key string, ttl time.Duration, refresh RefreshFunc[T]) (T, error) {
	var zero T

	raw, err := store.Get(ctx, key)
	switch {
	case err == nil:
		var cached T
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return cached, nil
		}
	case !errors.Is(err, ErrCacheMiss):
		return zero, fmt.Errorf("read cache key %s: %w", key, err)
	}

	fresh, err := refresh(ctx)
	if err != nil {
		return zero, err
	}

	encoded, err := json.Marshal(fresh)
	if err != nil {
		return fresh, fmt.Errorf("encode cache key %s: %w", key, err)
	}
	if err := store.Set(ctx, key, encoded, ttl); err != nil {
		return fresh, fmt.Errorf("write cache key %s: %w", key, err)
	}
	return fresh, nil
}
