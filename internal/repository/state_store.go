package repository

import (
	"context"
	"time"
)

// StateStore abstracts the durable key-value medium behind the TTL caches.
// Implementations: Redis (shared across instances), Postgres (durable), or in-memory (local dev / single instance).
// Get returns (nil, nil) for a missing key.
type StateStore interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Keys lists every live key starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
