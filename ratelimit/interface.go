package ratelimit

import (
	"context"
	"time"
)

// Limiter gates how often an identifier may call the completion endpoint.
type Limiter interface {
	// CheckLimit records one request for identifier and reports whether it is allowed.
	// A denied result carries the instant the current window ends.
	CheckLimit(ctx context.Context, identifier string) (Result, error)

	// Close releases any resources held by the limiter.
	Close() error
}

// Sweeper is implemented by limiters that keep records in process memory.
type Sweeper interface {
	// Sweep removes records whose window ended before now and returns how many were removed.
	Sweep(now time.Time) int
}
