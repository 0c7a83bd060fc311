// Package turnlock serializes chat turns so that a conversation never has more
// than one turn in flight.
package turnlock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/creastat/aura"
)

// Unlock releases a held lock. Calling it more than once is a no-op.
type Unlock func()

// Locker hands out exclusive locks keyed by conversation ID.
type Locker interface {
	// Lock blocks until the key is free or ctx is done. A failed acquisition
	// returns an error wrapping aura.ErrLockBusy.
	Lock(ctx context.Context, key string) (Unlock, error)
}

// Option is a functional option for configuring a locker.
type Option func(*lockerConfig)

type lockerConfig struct {
	redisClient redis.UniversalClient
	expiry      time.Duration
	tries       int
	retryDelay  time.Duration
}

// WithRedisClient sets the Redis client for the Redis locker.
func WithRedisClient(client redis.UniversalClient) Option {
	return func(c *lockerConfig) {
		c.redisClient = client
	}
}

// WithExpiry bounds how long a Redis lock survives a crashed holder.
// It should exceed the completion timeout.
func WithExpiry(d time.Duration) Option {
	return func(c *lockerConfig) {
		c.expiry = d
	}
}

// WithRetry sets how many times and how often the Redis locker retries a taken lock.
func WithRetry(tries int, delay time.Duration) Option {
	return func(c *lockerConfig) {
		c.tries = tries
		c.retryDelay = delay
	}
}

// NewLocker creates a Locker backed by the given store type.
func NewLocker(storeType aura.StoreType, opts ...Option) (Locker, error) {
	config := &lockerConfig{
		expiry:     time.Minute,
		tries:      64,
		retryDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(config)
	}

	switch storeType {
	case aura.StoreTypeMemory:
		return NewMemoryLocker(), nil
	case aura.StoreTypeRedis:
		if config.redisClient == nil {
			return nil, aura.ErrInvalidConfig
		}
		return newRedisLocker(config), nil
	default:
		return nil, aura.ErrInvalidStoreType
	}
}
