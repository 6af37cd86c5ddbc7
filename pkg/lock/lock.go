// Package lock provides per-key mutual exclusion for operations that must
// be serialized across engine callers, such as the per-client default
// workflow swap and sweep runs shared between replicas.
package lock

import (
	"context"
	"time"
)

// Locker serializes work per key. TryLock returns false without blocking
// when another holder owns the key; Unlock releases only the caller's own
// hold.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}
