package server

import (
	"fmt"
	"sync"
	"time"
)

// Rate limit scopes reported in RateLimitError.Scope.
const (
	scopeRequests = "requests"
	scopeUpload   = "upload"
)

// RateLimiter tracks per-client request rates and daily upload volume.
type RateLimiter struct {
	mu sync.Mutex

	requestsPerMinute int
	maxBytesPerDay    int64

	clients map[string]*clientUsage
	now     func() time.Time
}

// clientUsage is the usage of one client within the current windows.
type clientUsage struct {
	windowStart time.Time
	requests    int

	dayStart time.Time
	bytes    int64
}

// RateLimitError is returned when a client exceeds a limit.
type RateLimitError struct {
	Scope      string
	Limit      int64
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %s limit %d, retry after %v", e.Scope, e.Limit, e.RetryAfter.Round(time.Second))
}

// NewRateLimiter creates a limiter. A zero limit disables that check.
func NewRateLimiter(requestsPerMinute int, maxBytesPerDay int64) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		maxBytesPerDay:    maxBytesPerDay,
		clients:           make(map[string]*clientUsage),
		now:               time.Now,
	}
}

// Allow records a request of size bytes from client, or returns a
// *RateLimitError without recording it.
func (rl *RateLimiter) Allow(client string, size int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	u, ok := rl.clients[client]
	if !ok {
		u = &clientUsage{windowStart: now, dayStart: startOfDay(now)}
		rl.clients[client] = u
	}
	if now.Sub(u.windowStart) >= time.Minute {
		u.windowStart = now
		u.requests = 0
	}
	if day := startOfDay(now); day.After(u.dayStart) {
		u.dayStart = day
		u.bytes = 0
	}

	if rl.requestsPerMinute > 0 && u.requests >= rl.requestsPerMinute {
		return &RateLimitError{
			Scope:      scopeRequests,
			Limit:      int64(rl.requestsPerMinute),
			RetryAfter: time.Minute - now.Sub(u.windowStart),
		}
	}
	if rl.maxBytesPerDay > 0 && u.bytes+size > rl.maxBytesPerDay {
		return &RateLimitError{
			Scope:      scopeUpload,
			Limit:      rl.maxBytesPerDay,
			RetryAfter: u.dayStart.Add(24 * time.Hour).Sub(now),
		}
	}

	u.requests++
	u.bytes += size
	return nil
}

// Usage returns the requests in the current minute and bytes uploaded today
// for client.
func (rl *RateLimiter) Usage(client string) (requests int, bytes int64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	u, ok := rl.clients[client]
	if !ok {
		return 0, 0
	}
	return u.requests, u.bytes
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
