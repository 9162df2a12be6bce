package cache

import (
	"context"
	"time"
)

// Store is the key-value contract backing the status cache and the pending
// write set. Implementations must be safe for concurrent use.
//
// String values keep the port generic; callers own serialization. Misses are
// reported as the typed ErrMiss so transport errors stay distinguishable.
type Store interface {
	// Get fetches the value for key, returning ErrMiss when absent/expired.
	Get(ctx context.Context, key string) (string, error)

	// MGet fetches many keys at once. Missing keys are simply absent from
	// the result map; only transport errors are returned.
	MGet(ctx context.Context, keys ...string) (map[string]string, error)

	// Set stores value at key with the provided TTL. Zero or negative TTL
	// means no expiration.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Del removes keys and returns the number removed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// SAdd adds members to the set at key. Adding an existing member is a
	// no-op, which is what makes pending-set enqueueing idempotent.
	SAdd(ctx context.Context, key string, members ...string) error

	// SDrain atomically snapshots the set at key and clears it, returning
	// the snapshot. Members added after the snapshot land in a fresh set.
	SDrain(ctx context.Context, key string) ([]string, error)

	// Ping verifies connectivity with the backend.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// ErrMiss signals a cache miss in a typed way so callers can tell misses
// apart from transport errors.
var ErrMiss = errMiss{}

type errMiss struct{}

func (errMiss) Error() string { return "cache: miss" }
