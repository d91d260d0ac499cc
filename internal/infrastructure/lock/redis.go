// Package lock serializes scheduled jobs across replicas with a Redis lock.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"stocky/internal/core/apperror"
	"stocky/pkg/logger"
)

type obtainer interface {
	Obtain(ctx context.Context, key string, ttl time.Duration, opt *redislock.Options) (*redislock.Lock, error)
}

// Locker runs functions under a named lock. A nil *Locker runs them unlocked.
type Locker struct {
	rdb    *redis.Client
	client obtainer
}

// Connect dials Redis and verifies it answers. An empty addr returns a nil
// Locker so that single-replica deployments work without Redis.
func Connect(ctx context.Context, addr string) (*Locker, error) {
	if addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return &Locker{rdb: rdb, client: redislock.New(rdb)}, nil
}

// Do runs fn while holding key for at most ttl. When another replica holds
// the key it returns JOB_ALREADY_RUNNING without running fn.
func (l *Locker) Do(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	if l == nil || l.client == nil {
		return fn(ctx)
	}

	lk, err := l.client.Obtain(ctx, "lock:"+key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return apperror.NewJobRunning(key)
	}
	if err != nil {
		return fmt.Errorf("obtain lock %s: %w", key, err)
	}
	defer func() {
		if lk == nil {
			return
		}
		if err := lk.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.Warn(ctx, "lock release failed", "key", key, "error", err)
		}
	}()

	return fn(ctx)
}

// Close releases the Redis connection pool.
func (l *Locker) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}
