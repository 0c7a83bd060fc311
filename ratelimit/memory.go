package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps fixed-window records in process memory.
// State is lost on restart.
type MemoryLimiter struct {
	mu          sync.Mutex
	records     map[string]*Record
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter allowing maxRequests per window.
func NewMemoryLimiter(maxRequests int, window time.Duration, now func() time.Time) *MemoryLimiter {
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{
		records:     make(map[string]*Record),
		maxRequests: maxRequests,
		window:      window,
		now:         now,
	}
}

// CheckLimit implements Limiter.
func (l *MemoryLimiter) CheckLimit(_ context.Context, identifier string) (Result, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[identifier]
	if !ok || rec.expired(now, l.window) {
		l.records[identifier] = &Record{Count: 1, WindowStart: now}
		return Result{Allowed: true, Count: 1}, nil
	}

	rec.Count++
	return decide(*rec, l.maxRequests, l.window), nil
}

// Sweep implements Sweeper.
func (l *MemoryLimiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, rec := range l.records {
		if rec.expired(now, l.window) {
			delete(l.records, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked identifiers.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Close implements Limiter.
func (l *MemoryLimiter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = make(map[string]*Record)
	return nil
}

func decide(rec Record, maxRequests int, window time.Duration) Result {
	if rec.Count > maxRequests {
		reset := rec.WindowStart.Add(window)
		return Result{Allowed: false, ResetTime: &reset, Count: rec.Count}
	}
	return Result{Allowed: true, Count: rec.Count}
}
