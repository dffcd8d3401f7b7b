package ratelimit

import (
	"context"
	"time"
)

// KeyPrefix namespaces every counter key in the store.
const KeyPrefix = "rate_limit:"

// Response headers set by Middleware.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// Config is the per-client allowance: Requests per Window.
type Config struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1h"`
}

// Enabled reports whether limiting is configured. A zero Requests value disables it.
func (c Config) Enabled() bool {
	return c.Requests > 0
}

// Result contains the result of a rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// ResetAt is when the current window ends.
	ResetAt time.Time
}

// RetryAfter returns how long to wait before the next request is allowed.
// Returns 0 if the current request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return max(time.Until(r.ResetAt), 0)
}

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
	Reset(ctx context.Context, key string) error
}

// Store keeps one counter per key for the duration of a window.
type Store interface {
	// IncrementAndGet adds incr to the counter of key, starting a new window
	// of the given length when none is active, and returns the new count with
	// the time left in the window.
	IncrementAndGet(ctx context.Context, key string, incr int, window time.Duration) (current int64, ttl time.Duration, err error)

	// Delete removes the counter of key.
	Delete(ctx context.Context, key string) error
}
