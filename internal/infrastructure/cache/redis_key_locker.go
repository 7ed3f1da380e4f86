package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/otec/backoffice/internal/domain/shared"
	"github.com/otec/backoffice/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

const defaultLockKeyPrefix = "backoffice:lock:"

// RedisKeyLocker implements KeyLocker on top of redislock
// This is suitable for distributed deployments where multiple instances
// must not run the same keyed work at once
type RedisKeyLocker struct {
	client    *redis.Client
	locker    *redislock.Client
	keyPrefix string
}

// NewRedisKeyLocker connects to Redis and creates a key locker
func NewRedisKeyLocker(cfg config.RedisConfig) (*RedisKeyLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisKeyLockerWithClient(client, defaultLockKeyPrefix), nil
}

// NewRedisKeyLockerWithClient creates a locker with an existing Redis client
func NewRedisKeyLockerWithClient(client *redis.Client, keyPrefix string) *RedisKeyLocker {
	if keyPrefix == "" {
		keyPrefix = defaultLockKeyPrefix
	}
	return &RedisKeyLocker{
		client:    client,
		locker:    redislock.New(client),
		keyPrefix: keyPrefix,
	}
}

// Obtain takes the key for ttl without retrying
func (l *RedisKeyLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (shared.Lock, error) {
	lock, err := l.locker.Obtain(ctx, l.keyPrefix+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, shared.ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}
	return &redisLock{lock: lock}, nil
}

// Close closes the Redis client
func (l *RedisKeyLocker) Close() error {
	return l.client.Close()
}

type redisLock struct {
	lock *redislock.Lock
}

func (r *redisLock) Release(ctx context.Context) error {
	err := r.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}

// Ensure RedisKeyLocker implements KeyLocker
var _ shared.KeyLocker = (*RedisKeyLocker)(nil)
