package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/opsrelay/internal/core"
)

// releaseScript deletes the lease only while it is still held by the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLeaseRepo implements core.TargetLease using Redis keys with a TTL.
type RedisLeaseRepo struct {
	client redis.UniversalClient
}

var _ core.TargetLease = (*RedisLeaseRepo)(nil)

// NewRedisLeaseRepo creates a new RedisLeaseRepo with the given Redis client.
func NewRedisLeaseRepo(client redis.UniversalClient) *RedisLeaseRepo {
	return &RedisLeaseRepo{client: client}
}

// Acquire sets key to owner if no other owner holds it. The lease expires after ttl
// so a crashed invocation cannot block the target forever.
func (r *RedisLeaseRepo) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}
	if owner == "" {
		return false, errors.New("owner cannot be empty")
	}
	if ttl <= 0 {
		ttl = time.Second
	}

	status, err := r.client.SetArgs(ctx, key, owner, redis.SetArgs{Mode: "NX", TTL: ttl}).Result()
	if err != nil {
		// NX not met comes back as a nil reply.
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis SET NX: %w", err)
	}
	return status == "OK", nil
}

// Release drops the lease if owner still holds it. Releasing an expired or
// foreign lease is a no-op.
func (r *RedisLeaseRepo) Release(ctx context.Context, key, owner string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	if err := releaseScript.Run(ctx, r.client, []string{key}, owner).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis release lease: %w", err)
	}
	return nil
}

// Holder returns the current owner of key, or "" when it is free.
func (r *RedisLeaseRepo) Holder(ctx context.Context, key string) (string, error) {
	owner, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis get: %w", err)
	}
	return owner, nil
}

// Health checks the health of the Redis connection.
func (r *RedisLeaseRepo) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
