package ratelimit

import (
	"math"
	"net"
	"time"
)

// Result is the outcome of a single CheckLimit call.
type Result struct {
	Allowed   bool
	ResetTime *time.Time // set only when Allowed is false
	Count     int
}

// RetryAfter returns the time left until the window resets, never negative.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.ResetTime == nil {
		return 0
	}
	if d := r.ResetTime.Sub(now); d > 0 {
		return d
	}
	return 0
}

// WaitMinutes rounds RetryAfter up to whole minutes.
func (r Result) WaitMinutes(now time.Time) int {
	return int(math.Ceil(r.RetryAfter(now).Minutes()))
}

// Record is the per-identifier window state.
type Record struct {
	Count       int       `json:"count"`
	WindowStart time.Time `json:"window_start"`
}

func (r Record) expired(now time.Time, window time.Duration) bool {
	return now.After(r.WindowStart.Add(window))
}

// Identifier derives the rate limit key for a caller: the authenticated user
// when known, the client address otherwise.
func Identifier(userID, remoteAddr string) string {
	if userID != "" {
		return "user:" + userID
	}
	if ip := normalizeIP(remoteAddr); ip != "" {
		return "anon:" + ip
	}
	return "anonymous"
}

func normalizeIP(raw string) string {
	if raw == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	if ip := net.ParseIP(raw); ip != nil {
		return ip.String()
	}
	return raw
}
