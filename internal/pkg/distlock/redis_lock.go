package distlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

var refreshScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// RedisLock is a SET NX lock with a TTL. The value is a per-instance owner
// token, and release only deletes the key while it still holds that token.
type RedisLock struct {
	client *redis.Client
	key    string
	value  string
	ttl    time.Duration
}

// NewRedisLock creates a lock on "lock:<key>". The TTL bounds how long a
// crashed holder blocks the next sweep.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{
		client: client,
		key:    "lock:" + key,
		value:  uuid.NewString(),
		ttl:    ttl,
	}
}

// Key returns the Redis key holding the lock.
func (l *RedisLock) Key() string { return l.key }

// Acquire reports false without error when another owner holds the key.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring %s: %w", l.key, err)
	}
	return ok, nil
}

// Release deletes the key if this instance still owns it. A lock that
// expired and was taken by someone else is left alone.
func (l *RedisLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.value).Err(); err != nil {
		return fmt.Errorf("releasing %s: %w", l.key, err)
	}
	return nil
}

// Refresh resets the TTL while this instance still owns the key. It
// reports false once the lock expired and may belong to someone else.
func (l *RedisLock) Refresh(ctx context.Context) (bool, error) {
	n, err := refreshScript.Run(ctx, l.client, []string{l.key}, l.value, l.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("refreshing %s: %w", l.key, err)
	}
	return n == 1, nil
}
