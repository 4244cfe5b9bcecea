// Package cache provides the in-process image tier and the Redis-backed
// warm lock shared by API and worker processes.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hszk-dev/recipebox/internal/domain/repository"
	"github.com/redis/go-redis/v9"
)

const (
	// warmLockKeyPrefix is the prefix for warm lock keys in Redis.
	warmLockKeyPrefix = "warm:"

	// lockValue marks a held lock. The holder is not tracked.
	lockValue = "1"
)

// ErrInvalidTTL is returned when a lock is requested without a positive TTL.
var ErrInvalidTTL = errors.New("lock ttl must be positive")

// RedisWarmLock implements repository.WarmLock using SET NX PX.
type RedisWarmLock struct {
	client *redis.Client
}

// Compile-time verification that RedisWarmLock implements repository.WarmLock.
var _ repository.WarmLock = (*RedisWarmLock)(nil)

// NewRedisWarmLock creates a new Redis-backed warm lock.
func NewRedisWarmLock(client *redis.Client) *RedisWarmLock {
	return &RedisWarmLock{
		client: client,
	}
}

// Acquire tries to take the lock for key. It reports false without error
// when another holder already has it. The lock expires after ttl.
func (l *RedisWarmLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}

	err := l.client.SetArgs(ctx, l.buildKey(key), lockValue, redis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Err()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // Already held
		}
		return false, fmt.Errorf("redis set nx: %w", err)
	}

	return true, nil
}

// Release drops the lock for key. Releasing a free lock is not an error.
func (l *RedisWarmLock) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.buildKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// buildKey constructs the Redis key for a lock.
func (l *RedisWarmLock) buildKey(key string) string {
	return warmLockKeyPrefix + key
}
