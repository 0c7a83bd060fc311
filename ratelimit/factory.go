package ratelimit

import (
	"time"

	"github.com/creastat/aura"
)

// NewLimiter creates a Limiter backed by the given store type.
// For Redis, requires WithRedisClient option.
func NewLimiter(storeType aura.StoreType, opts ...Option) (Limiter, error) {
	config := &limiterConfig{
		maxRequests: defaultMaxRequests,
		window:      defaultWindow,
		keyPrefix:   defaultKeyPrefix,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(config)
	}

	if config.maxRequests <= 0 || config.window <= 0 {
		return nil, aura.ErrInvalidConfig
	}

	switch storeType {
	case aura.StoreTypeMemory:
		return NewMemoryLimiter(config.maxRequests, config.window, config.now), nil

	case aura.StoreTypeRedis:
		if config.redisClient == nil {
			return nil, aura.ErrInvalidConfig
		}
		return &redisLimiter{
			client:      config.redisClient,
			maxRequests: config.maxRequests,
			window:      config.window,
			prefix:      config.keyPrefix,
			now:         config.now,
		}, nil

	default:
		return nil, aura.ErrInvalidStoreType
	}
}
