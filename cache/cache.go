package cache

import (
	"context"
	"time"
)

// Store is a key-value store with per-key expiration, used by the gateway for
// upstream payloads. Values are opaque bytes; a Set fully replaces the entry,
// and a Get for an expired key reports a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
