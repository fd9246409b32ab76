package session

import (
	"context"
	"time"
)

// Store is the narrow key-value contract the auth core needs: per-key TTL,
// individually atomic operations, no cross-key transactions. A Redis-backed
// implementation satisfies the same four calls.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
