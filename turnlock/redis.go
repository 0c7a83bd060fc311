package turnlock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"

	"github.com/creastat/aura"
)

const lockKeyPrefix = "turnlock:"

// redisLocker shares turn locks between service instances.
type redisLocker struct {
	rs         *redsync.Redsync
	expiry     time.Duration
	tries      int
	retryDelay time.Duration
}

func newRedisLocker(cfg *lockerConfig) *redisLocker {
	return &redisLocker{
		rs:         redsync.New(goredis.NewPool(cfg.redisClient)),
		expiry:     cfg.expiry,
		tries:      cfg.tries,
		retryDelay: cfg.retryDelay,
	}
}

// Lock implements Locker.
func (l *redisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	mutex := l.rs.NewMutex(lockKeyPrefix+key,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(l.tries),
		redsync.WithRetryDelay(l.retryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", aura.ErrLockBusy, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be done; release regardless.
			_, _ = mutex.UnlockContext(context.Background())
		})
	}, nil
}
