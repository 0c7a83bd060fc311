package aura

import "errors"

// Errors shared by the chat pipeline and its stores.
var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrInvalidStoreType = errors.New("invalid store type")
	ErrInvalidInput     = errors.New("invalid input")
	ErrVersionConflict  = errors.New("session version conflict")
	ErrNotFound         = errors.New("not found")
	ErrLockBusy         = errors.New("conversation turn already in progress")

	// Turn failure taxonomy.
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrTimeout           = errors.New("request timed out")
	ErrUnavailable       = errors.New("completion service unavailable")
	ErrMalformedResponse = errors.New("malformed completion response")
	ErrPersistence       = errors.New("failed to persist conversation")
)
