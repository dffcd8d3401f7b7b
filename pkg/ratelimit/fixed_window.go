package ratelimit

import (
	"context"
	"time"
)

// FixedWindow allows Config.Requests requests per key in consecutive windows
// of Config.Window. A window starts with the first request of a key.
type FixedWindow struct {
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewFixedWindow creates a fixed window limiter backed by store.
func NewFixedWindow(store Store, cfg Config) (*FixedWindow, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if cfg.Requests <= 0 {
		return nil, ErrInvalidLimit
	}
	if cfg.Window <= 0 {
		return nil, ErrInvalidInterval
	}
	return &FixedWindow{store: store, limit: cfg.Requests, window: cfg.Window, now: time.Now}, nil
}

// Allow counts one request for key.
func (fw *FixedWindow) Allow(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	count, ttl, err := fw.store.IncrementAndGet(ctx, KeyPrefix+key, 1, fw.window)
	if err != nil {
		return nil, err
	}

	return &Result{
		Allowed:   count <= int64(fw.limit),
		Limit:     fw.limit,
		Remaining: max(0, fw.limit-int(count)),
		ResetAt:   fw.now().Add(ttl),
	}, nil
}

// Reset forgets the counter of key.
func (fw *FixedWindow) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return fw.store.Delete(ctx, KeyPrefix+key)
}
