// Package lock provides the cross-process mutual exclusion primitive the
// sync engine serializes identity resolution with.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"chatsync.app/bridge/core/config"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the lock could not be taken within the
// configured tries. Callers should retry the whole job rather than proceed
// unlocked.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker runs fn under a named lock. The lock is leased: a crashed holder
// releases it by expiry.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

type redisLocker struct {
	rs  *redsync.Redsync
	cfg config.LockConfig
}

func NewRedisLocker(client redis.UniversalClient, cfg config.LockConfig) Locker {
	return &redisLocker{
		rs:  redsync.New(goredis.NewPool(client)),
		cfg: cfg,
	}
}

func (l *redisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	mutex := l.rs.NewMutex(key,
		redsync.WithExpiry(l.cfg.Expiry),
		redsync.WithTries(l.cfg.Tries),
		redsync.WithRetryDelay(l.cfg.RetryDelay),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("%w: %s: %s", ErrNotAcquired, key, err)
	}
	defer func() {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			// The lease expires on its own; losing the early release
			// only delays the next holder.
			slog.WarnContext(ctx, "failed to release lock", "key", key, "error", err)
		}
	}()
	return fn(ctx)
}
