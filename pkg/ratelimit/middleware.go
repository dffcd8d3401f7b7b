package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/styledoc/pkg/logger"
)

// KeyFunc extracts the client identifier from a request. An empty key skips limiting.
type KeyFunc func(*http.Request) string

// LimitHandler writes the response for a rejected request. Rate limit
// headers, Retry-After included, are already set.
type LimitHandler func(w http.ResponseWriter, r *http.Request, res *Result)

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	onLimitReached LimitHandler
	skip           func(*http.Request) bool
	logger         *slog.Logger
}

// WithOnLimitReached replaces the plain text 429 response.
func WithOnLimitReached(fn LimitHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.onLimitReached = fn
		}
	}
}

// WithSkipFunc exempts requests for which fn returns true.
func WithSkipFunc(fn func(*http.Request) bool) MiddlewareOption {
	return func(c *middlewareConfig) { c.skip = fn }
}

// WithLogger sets the logger for store failures and rejections.
func WithLogger(l *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Middleware enforces limiter per key. It fails open: when the limiter
// errors the request proceeds and the error is logged.
func Middleware(limiter Limiter, keyFunc KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if limiter == nil || keyFunc == nil {
		panic("ratelimit.Middleware: limiter and keyFunc are required")
	}

	cfg := &middlewareConfig{
		onLimitReached: func(w http.ResponseWriter, _ *http.Request, _ *Result) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		},
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	log := cfg.logger.With(logger.Component("ratelimit"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.skip != nil && cfg.skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log.WarnContext(r.Context(), "ratelimit: limiter unavailable, allowing request", logger.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set(HeaderLimit, strconv.Itoa(res.Limit))
			h.Set(HeaderRemaining, strconv.Itoa(res.Remaining))
			h.Set(HeaderReset, strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				retryAfter := max(int(math.Ceil(res.RetryAfter().Seconds())), 1)
				h.Set(HeaderRetryAfter, strconv.Itoa(retryAfter))
				log.InfoContext(r.Context(), "ratelimit: request rejected",
					slog.String("path", r.URL.Path),
					slog.Int("retry_after", retryAfter),
				)
				cfg.onLimitReached(w, r, res)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
