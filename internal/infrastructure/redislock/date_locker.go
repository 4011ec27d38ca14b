// Package redislock serialises daily stats runs across processes with a Redis lock per date.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/epos-daily-stats/internal/application/dailystats"
	"github.com/jhoicas/epos-daily-stats/internal/domain"
	"github.com/jhoicas/epos-daily-stats/pkg/config"
)

var _ dailystats.DateLocker = (*DateLocker)(nil)

// KeyPrefix of every lock key; the date follows as YYYY-MM-DD.
const KeyPrefix = "epos:daily-stats:"

// DateLocker implements dailystats.DateLocker on bsm/redislock.
type DateLocker struct {
	locker  *redislock.Client
	ttl     time.Duration
	retry   time.Duration
	retries int
}

// NewClient connects to Redis and pings it.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// NewDateLocker waits for a held lock up to retries × retry before giving up.
func NewDateLocker(client redislock.RedisClient, ttl time.Duration) *DateLocker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DateLocker{
		locker:  redislock.New(client),
		ttl:     ttl,
		retry:   500 * time.Millisecond,
		retries: 20,
	}
}

// Key lock key of a date.
func Key(date time.Time) string {
	return KeyPrefix + date.Format("2006-01-02")
}

// Lock obtains the date lock. A lock still held after the retries returns
// domain.ErrLockNotObtained.
func (l *DateLocker) Lock(ctx context.Context, date time.Time) (func(), error) {
	lock, err := l.locker.Obtain(ctx, Key(date), l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.retry), l.retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, domain.ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain redis lock: %w", err)
	}
	return func() {
		// Release with a fresh context: the caller's may already be cancelled.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = lock.Release(ctx)
	}, nil
}
