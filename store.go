package aura

// StoreType selects the backend of a state store (rate limits, sessions, turn locks).
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)
