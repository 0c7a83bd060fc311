package ratelimit

import (
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxRequests = 10
	defaultWindow      = time.Minute
	defaultKeyPrefix   = "ratelimit:"
)

// Option is a functional option for configuring a limiter.
type Option func(*limiterConfig)

type limiterConfig struct {
	maxRequests int
	window      time.Duration
	redisClient redis.UniversalClient
	keyPrefix   string
	now         func() time.Time
}

// WithMaxRequests sets how many requests are allowed per window.
func WithMaxRequests(n int) Option {
	return func(c *limiterConfig) {
		c.maxRequests = n
	}
}

// WithWindow sets the window duration.
func WithWindow(d time.Duration) Option {
	return func(c *limiterConfig) {
		c.window = d
	}
}

// WithRedisClient sets the Redis client for the Redis limiter.
func WithRedisClient(client redis.UniversalClient) Option {
	return func(c *limiterConfig) {
		c.redisClient = client
	}
}

// WithKeyPrefix overrides the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *limiterConfig) {
		c.keyPrefix = prefix
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *limiterConfig) {
		c.now = now
	}
}
