package cache

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/styledoc/pkg/logger"
)

// Manager is a layered cache: the in-process tier first, then the optional
// disk and remote tiers, then any custom tiers. Reads probe the tiers in
// that order and promote hits into the faster tiers; writes go to every
// tier. A failing tier degrades to a miss; it never fails the caller.
// Safe for concurrent use.
type Manager struct {
	tiers      []Tier
	logger     *slog.Logger
	defaultTTL time.Duration
	now        func() time.Time

	hits       atomic.Int64
	misses     atomic.Int64
	tierHits   []atomic.Int64
	tierErrors []atomic.Int64
}

// NewManager builds the tier list. The memory tier is always present; disk
// and remote tiers that fail to initialize are logged once and left out.
func NewManager(opts ...Option) *Manager {
	o := options{
		logger:         logger.Discard(),
		defaultTTL:     DefaultTTL,
		memoryCapacity: DefaultMemoryCapacity,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Manager{
		logger:     o.logger.With(logger.Component("cache")),
		defaultTTL: o.defaultTTL,
		now:        o.now,
	}

	memory := NewMemoryTier(o.memoryCapacity)
	memory.SetEvictCallback(func(key string, _ Entry) {
		m.logger.Debug("cache: evicted by capacity", logger.Tier(memory.Name()), logger.CacheKey(key))
	})
	m.tiers = append(m.tiers, memory)

	if o.diskDir != "" {
		disk, err := NewDiskTier(o.diskDir)
		if err != nil {
			m.logger.Warn("cache: disk tier disabled", logger.Tier("disk"), logger.Error(err))
		} else {
			m.tiers = append(m.tiers, disk)
		}
	}

	if o.remote != nil {
		remote := NewRedisTier(o.remote)
		remote.now = o.now
		if err := remote.Ping(context.Background()); err != nil {
			m.logger.Warn("cache: remote tier disabled", logger.Tier(remote.Name()),
				logger.Error(errors.Join(ErrTierUnavailable, err)))
		} else {
			m.tiers = append(m.tiers, remote)
		}
	}

	m.tiers = append(m.tiers, o.extra...)
	m.tierHits = make([]atomic.Int64, len(m.tiers))
	m.tierErrors = make([]atomic.Int64, len(m.tiers))

	m.logger.Info("cache: ready", slog.Any("tiers", m.Tiers()))
	return m
}

// Tiers returns the active tier names, fastest first.
func (m *Manager) Tiers() []string {
	names := make([]string, len(m.tiers))
	for i, t := range m.tiers {
		names[i] = t.Name()
	}
	return names
}

// Get returns the value under key. An expired entry found in a tier is
// removed from it and the probe continues with the next tier. A hit in a
// slower tier is copied, with its original creation time and TTL, into
// every faster tier. Reads never extend the TTL.
func (m *Manager) Get(ctx context.Context, key string) ([]byte, bool) {
	k := NormalizeKey(key)
	if k == "" {
		m.misses.Add(1)
		return nil, false
	}

	now := m.now()
	for i, t := range m.tiers {
		e, found, err := t.Get(ctx, k)
		if err != nil {
			m.tierFailed(ctx, i, "get", k, err)
			continue
		}
		if !found {
			continue
		}
		if e.Expired(now) {
			m.dropExpired(ctx, i, k, e)
			continue
		}

		m.hits.Add(1)
		m.tierHits[i].Add(1)
		m.promote(ctx, i, k, e)
		return bytes.Clone(e.Value), true
	}

	m.misses.Add(1)
	return nil, false
}

// GetString is Get for string values.
func (m *Manager) GetString(ctx context.Context, key string) (string, bool) {
	v, ok := m.Get(ctx, key)
	return string(v), ok
}

// Set writes value to every tier, the in-process tier first. Slower tier
// failures are logged and do not fail the call. A non-positive ttl means
// the default TTL.
func (m *Manager) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	k := NormalizeKey(key)
	if k == "" {
		return ErrInvalidKey
	}
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	e := NewEntry(bytes.Clone(value), ttl, m.now())
	stored := 0
	for i, t := range m.tiers {
		if err := t.Set(ctx, k, e); err != nil {
			m.tierFailed(ctx, i, "set", k, err)
			continue
		}
		stored++
	}
	if stored == 0 {
		return ErrNoTier
	}
	return nil
}

// SetString is Set for string values.
func (m *Manager) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	return m.Set(ctx, key, []byte(value), ttl)
}

// Delete removes key from every tier. Deleting a missing key is not an error.
func (m *Manager) Delete(ctx context.Context, key string) error {
	k := NormalizeKey(key)
	if k == "" {
		return ErrInvalidKey
	}
	for i, t := range m.tiers {
		if err := t.Delete(ctx, k); err != nil {
			m.tierFailed(ctx, i, "delete", k, err)
		}
	}
	return nil
}

// Clear flushes every tier. Counters are kept.
func (m *Manager) Clear(ctx context.Context) error {
	for i, t := range m.tiers {
		if err := t.Clear(ctx); err != nil {
			m.tierFailed(ctx, i, "clear", "", err)
		}
	}
	m.logger.InfoContext(ctx, "cache: cleared")
	return nil
}

// CleanupExpired removes expired entries from the tiers that support bulk
// expiry and returns how many were removed.
func (m *Manager) CleanupExpired(ctx context.Context) int {
	now := m.now()
	total := 0
	for i, t := range m.tiers {
		sweeper, ok := t.(expirySweeper)
		if !ok {
			continue
		}
		n, err := sweeper.RemoveExpired(ctx, now)
		if err != nil {
			m.tierFailed(ctx, i, "cleanup", "", err)
		}
		total += n
	}
	if total > 0 {
		m.logger.DebugContext(ctx, "cache: expired entries removed", slog.Int("count", total))
	}
	return total
}

// Close releases the resources held by custom tiers. The remote tier's
// client is not closed.
func (m *Manager) Close() error {
	var errs []error
	for _, t := range m.tiers {
		if c, ok := t.(closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) promote(ctx context.Context, hit int, key string, e Entry) {
	for j := range hit {
		if err := m.tiers[j].Set(ctx, key, e); err != nil {
			m.tierFailed(ctx, j, "promote", key, err)
		}
	}
}

func (m *Manager) dropExpired(ctx context.Context, i int, key string, e Entry) {
	if cd, ok := m.tiers[i].(conditionalDeleter); ok {
		cd.CompareAndDelete(key, e.CreatedAt)
		return
	}
	if err := m.tiers[i].Delete(ctx, key); err != nil {
		m.tierFailed(ctx, i, "delete", key, err)
	}
}

// tierFailed counts a tier error. Availability problems are logged once at
// construction, so runtime failures only go to the debug log.
func (m *Manager) tierFailed(ctx context.Context, i int, op, key string, err error) {
	m.tierErrors[i].Add(1)
	m.logger.DebugContext(ctx, "cache: tier operation failed",
		logger.Tier(m.tiers[i].Name()),
		slog.String("op", op),
		logger.CacheKey(key),
		logger.Error(err),
	)
}
