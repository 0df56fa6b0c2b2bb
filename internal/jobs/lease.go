package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lease guards overlapping sweep invocations with a redis SetNX lock. It is a
// best-effort guard: when redis is unavailable the sweep proceeds and relies
// on the generator's own timestamp idempotency check.
type Lease struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLease constructs a lease manager.
func NewLease(client *redis.Client, ttl time.Duration) *Lease {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Lease{client: client, ttl: ttl}
}

// Acquire attempts to take the named lease. It returns false when another run
// currently holds it, and a release func to call when the sweep finishes.
func (l *Lease) Acquire(ctx context.Context, name string) (bool, func(), error) {
	if l == nil || l.client == nil {
		return true, func() {}, nil
	}
	key := "workorder:lease:" + name
	ok, err := l.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		// redis down: proceed without the lease
		return true, func() {}, err
	}
	if !ok {
		return false, func() {}, nil
	}
	release := func() {
		_ = l.client.Del(context.Background(), key).Err()
	}
	return true, release, nil
}
