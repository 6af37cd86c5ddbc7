package cmd

import (
	redis "github.com/redis/go-redis/v9"

	"github.com/contentops/approvalflow/pkg/lock"
)

// NewLocker builds the per-key locker. An empty redisURL selects the
// in-process locker; multi-replica deployments point at redis so the
// default swap and sweep runs serialize across processes.
func NewLocker(redisURL string) lock.Locker {
	if redisURL == "" {
		return lock.NewLocalLocker()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		panic("invalid redis URL: " + err.Error())
	}

	return lock.NewRedisLocker(redis.NewClient(opts))
}
