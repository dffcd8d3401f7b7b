package cache

import (
	"context"
	"time"
)

// Tier is one storage layer of the Manager. Tiers store entries as given
// and never check expiry themselves; the Manager does.
// Implementations must be safe for concurrent use.
type Tier interface {
	Name() string
	// Get returns the entry under key. A missing key is (Entry{}, false, nil).
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, e Entry) error
	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) (int, error)
}

// expirySweeper is implemented by tiers that can drop expired entries in bulk.
type expirySweeper interface {
	RemoveExpired(ctx context.Context, now time.Time) (int, error)
}

// conditionalDeleter is implemented by tiers that can delete an entry only
// if it is still the one the caller saw.
type conditionalDeleter interface {
	CompareAndDelete(key string, createdAt time.Time) bool
}

// closer is implemented by tiers holding resources.
type closer interface {
	Close() error
}
