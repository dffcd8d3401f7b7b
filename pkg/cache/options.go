package cache

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/styledoc/pkg/redis"
)

// DefaultTTL applies when Set is called without a positive TTL.
const DefaultTTL = time.Hour

// Option configures a Manager.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	defaultTTL     time.Duration
	memoryCapacity int
	diskDir        string
	remote         *redis.Storage
	extra          []Tier
	now            func() time.Time
}

// WithLogger sets the logger. Nil loggers are ignored.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDefaultTTL sets the TTL used when Set gets a non-positive one.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.defaultTTL = ttl
		}
	}
}

// WithMemoryCapacity limits the in-process tier to n entries.
func WithMemoryCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.memoryCapacity = n
		}
	}
}

// WithDiskDir enables the local persistent tier under dir.
func WithDiskDir(dir string) Option {
	return func(o *options) { o.diskDir = dir }
}

// WithRemote enables the shared remote tier. The manager pings it once at
// construction and leaves it out if the ping fails. The storage's client
// stays open either way: it belongs to the caller, who may share it.
func WithRemote(store *redis.Storage) Option {
	return func(o *options) { o.remote = store }
}

// WithTier appends a custom tier after the built-in ones.
func WithTier(t Tier) Option {
	return func(o *options) {
		if t != nil {
			o.extra = append(o.extra, t)
		}
	}
}

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
