package lock

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only when the caller still owns it, so a
// lock that expired and was re-acquired elsewhere is never released by the
// previous holder.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
else
    return 0
end
`

// RedisLocker serializes keys across processes using SET NX with a TTL.
type RedisLocker struct {
	client redis.UniversalClient

	mu     sync.Mutex
	tokens map[string]string
}

// NewRedisLocker creates a distributed locker on the given client.
func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{
		client: client,
		tokens: make(map[string]string),
	}
}

// TryLock attempts a non-blocking acquire. The TTL bounds how long a
// crashed holder can keep the key.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := fmt.Sprintf("%d_%d", rand.Int63(), time.Now().UnixNano())

	acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %q: %w", key, err)
	}

	if !acquired {
		return false, nil
	}

	l.mu.Lock()
	l.tokens[key] = token
	l.mu.Unlock()

	return true, nil
}

// Unlock releases the key when this locker still owns it. A fresh context
// is used for the delete so a cancelled caller context cannot leak the
// hold until TTL expiry.
func (l *RedisLocker) Unlock(_ context.Context, key string) error {
	l.mu.Lock()
	token, exists := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()

	if !exists {
		return nil
	}

	_, err := l.client.Eval(context.Background(), releaseScript, []string{key}, token).Result()
	if err != nil {
		return fmt.Errorf("failed to release lock %q: %w", key, err)
	}

	return nil
}
