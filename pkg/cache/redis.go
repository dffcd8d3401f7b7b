package cache

import (
	"context"
	"time"

	"github.com/dmitrymomot/styledoc/pkg/redis"
)

// RedisTier is the optional shared remote tier. Entries are stored as JSON
// under the storage's key prefix with a Redis expiry equal to the remaining
// TTL, so the server drops them on its own as well. Every call is bounded
// by the storage timeout; a timeout is a tier error, never a hang.
type RedisTier struct {
	store *redis.Storage
	now   func() time.Time
}

// NewRedisTier wraps a prefix-scoped storage.
func NewRedisTier(store *redis.Storage) *RedisTier {
	return &RedisTier{store: store, now: time.Now}
}

func (r *RedisTier) Name() string { return "redis" }

func (r *RedisTier) Get(ctx context.Context, key string) (Entry, bool, error) {
	data, found, err := r.store.Get(ctx, key)
	if err != nil || !found {
		return Entry{}, false, err
	}
	e, err := decodeEntry(data)
	if err != nil {
		_ = r.store.Delete(ctx, key)
		return Entry{}, false, err
	}
	return e, true, nil
}

func (r *RedisTier) Set(ctx context.Context, key string, e Entry) error {
	remaining := e.Remaining(r.now())
	if remaining <= 0 {
		return r.store.Delete(ctx, key)
	}
	data, err := encodeEntry(e)
	if err != nil {
		return err
	}
	// Redis expiry has millisecond resolution; round up so it never undercuts the entry.
	return r.store.Set(ctx, key, data, remaining.Truncate(time.Millisecond)+time.Millisecond)
}

func (r *RedisTier) Delete(ctx context.Context, key string) error {
	return r.store.Delete(ctx, key)
}

// Clear removes only keys under the storage prefix.
func (r *RedisTier) Clear(ctx context.Context) error {
	return r.store.Reset(ctx)
}

func (r *RedisTier) Len(ctx context.Context) (int, error) {
	return r.store.Count(ctx)
}

// Ping reports whether the server answers within the storage timeout.
func (r *RedisTier) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}
