package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/medflow/stockcheck-backend/pkg/config"
	"github.com/medflow/stockcheck-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "stockcheck:lock:"

// RedisLocker obtains locks through bsm/redislock
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
	logger *logger.Logger
}

// NewRedisClient connects to the Redis instance named by url and pings it
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// NewRedis creates a RedisLocker on top of an existing client
func NewRedis(rdb redis.UniversalClient, cfg *config.RedisConfig, log *logger.Logger) *RedisLocker {
	retry := cfg.RetryDelay
	if retry <= 0 {
		retry = 100 * time.Millisecond
	}
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    cfg.LockTTL,
		wait:   cfg.LockWait,
		retry:  retry,
		logger: log,
	}
}

// Obtain retries with a linear backoff until the wait period is over
func (r *RedisLocker) Obtain(ctx context.Context, key string) (Lock, error) {
	if r.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.wait)
		defer cancel()
	}

	held, err := r.client.Obtain(ctx, keyPrefix+key, r.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(r.retry),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		r.logger.Warn().Str("lock_key", key).Msg("could not obtain lock")
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	return &redisLock{lock: held, key: key, logger: r.logger}, nil
}

type redisLock struct {
	lock   *redislock.Lock
	key    string
	logger *logger.Logger
}

// Release ignores locks that already expired; the TTL is the safety net for crashed holders
func (l *redisLock) Release(ctx context.Context) error {
	err := l.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		l.logger.Warn().Str("lock_key", l.key).Msg("lock expired before release")
		return nil
	}
	return err
}
