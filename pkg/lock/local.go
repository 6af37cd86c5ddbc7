package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLocker serializes keys within a single process. It is the default
// for the file store and for tests; multi-replica deployments use the
// redis locker instead.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
}

// NewLocalLocker creates an in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		held: make(map[string]time.Time),
	}
}

// TryLock acquires the key unless another caller holds it and the hold has
// not expired. Expired holds are reclaimed so a crashed holder cannot wedge
// the key forever.
func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	expiry, exists := l.held[key]
	if exists && time.Now().Before(expiry) {
		return false, nil
	}

	l.held[key] = time.Now().Add(ttl)

	return true, nil
}

// Unlock releases the key.
func (l *LocalLocker) Unlock(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.held, key)

	return nil
}
