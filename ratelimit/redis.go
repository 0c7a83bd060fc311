package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxTxRetries = 5

// redisLimiter shares window records between instances through Redis.
type redisLimiter struct {
	client      redis.UniversalClient
	maxRequests int
	window      time.Duration
	prefix      string
	now         func() time.Time
}

// CheckLimit implements Limiter.
// The record is read and rewritten inside WATCH/MULTI/EXEC so concurrent
// callers never lose an increment.
func (l *redisLimiter) CheckLimit(ctx context.Context, identifier string) (Result, error) {
	key := l.prefix + identifier

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		var result Result
		err := l.client.Watch(ctx, func(tx *redis.Tx) error {
			now := l.now()

			rec, err := l.load(ctx, tx, key)
			if err != nil {
				return err
			}
			if rec == nil || rec.expired(now, l.window) {
				rec = &Record{Count: 1, WindowStart: now}
			} else {
				rec.Count++
			}

			val, err := json.Marshal(rec)
			if err != nil {
				return err
			}

			// Expire shortly after the window ends so idle identifiers are evicted.
			ttl := rec.WindowStart.Add(l.window).Sub(now) + time.Second
			if ttl <= 0 {
				ttl = l.window
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, val, ttl)
				return nil
			})
			if err != nil {
				return err
			}

			result = decide(*rec, l.maxRequests, l.window)
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return Result{}, fmt.Errorf("rate limit check failed: %w", err)
		}
		return result, nil
	}

	return Result{}, fmt.Errorf("rate limit check failed: %w", redis.TxFailedErr)
}

func (l *redisLimiter) load(ctx context.Context, tx *redis.Tx, key string) (*Record, error) {
	val, err := tx.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		// Unreadable records start a fresh window.
		return nil, nil
	}
	return &rec, nil
}

// Close implements Limiter. The Redis client is owned by the caller.
func (l *redisLimiter) Close() error {
	return nil
}
