// Package ratelimit limits how many requests a client may make per time window.
//
// FixedWindow counts requests per key in windows that start with the first
// request of the key. Counters live in a Store: MemoryStore for a single
// instance, RedisStore to share them between instances. Keys are stored as
// KeyPrefix + key.
//
//	store := ratelimit.NewMemoryStore()
//	defer store.Close()
//	limiter, err := ratelimit.NewFixedWindow(store, ratelimit.Config{Requests: 100, Window: time.Hour})
//
// Middleware applies a limiter to HTTP handlers and sets the
// X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset headers.
// Rejected requests also get Retry-After and a 429 response, which
// WithOnLimitReached can replace. Limiter errors never reject a request.
package ratelimit
