package session

import (
	"time"

	"github.com/creastat/aura"
)

// NewStore creates a new session Store based on the given type.
// For Redis, requires WithRedisClient option.
func NewStore(storeType aura.StoreType, opts ...StoreOption) (Store, error) {
	config := &storeConfig{}
	for _, opt := range opts {
		opt(config)
	}

	switch storeType {
	case aura.StoreTypeMemory:
		return NewInMemoryStore(), nil

	case aura.StoreTypeRedis:
		if config.redisClient == nil {
			return nil, aura.ErrInvalidConfig
		}
		return NewRedisStore(config.redisClient, config.redisTTL), nil

	default:
		return nil, aura.ErrInvalidStoreType
	}
}

func stamp(data *SessionData, now time.Time) {
	data.CreatedAt = now
	data.UpdatedAt = now
	data.Version = 1
}
