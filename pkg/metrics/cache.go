package metrics

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dmitrymomot/styledoc/pkg/cache"
)

// Cache records request outcomes and latency of a cache.Manager and
// observes its tier sizes and hit rate at collection time.
type Cache struct {
	next         *cache.Manager
	requests     metric.Int64Counter
	duration     metric.Float64Histogram
	registration metric.Registration
}

// WrapCache instruments m with meter. A nil meter records nothing.
// Call Close to unregister the gauges and close m.
func WrapCache(m *cache.Manager, meter metric.Meter) (*Cache, error) {
	meter = orNoop(meter)

	requests, err := meter.Int64Counter(
		"cache.requests",
		metric.WithDescription("Cache operations by op and result"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, errors.Join(ErrInstrument, err)
	}
	duration, err := meter.Float64Histogram(
		"cache.duration_ms",
		metric.WithDescription("Cache operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, errors.Join(ErrInstrument, err)
	}
	entries, err := meter.Int64ObservableGauge(
		"cache.entries",
		metric.WithDescription("Entries per cache tier"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, errors.Join(ErrInstrument, err)
	}
	hitRate, err := meter.Float64ObservableGauge(
		"cache.hit_rate",
		metric.WithDescription("Hits divided by lookups since start"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, errors.Join(ErrInstrument, err)
	}

	reg, err := meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		stats := m.Stats(ctx)
		for tier, n := range stats.TierSizes {
			// -1 means the tier could not report its size.
			if n < 0 {
				continue
			}
			o.ObserveInt64(entries, int64(n), metric.WithAttributes(attribute.String("tier", tier)))
		}
		o.ObserveFloat64(hitRate, stats.HitRate)
		return nil
	}, entries, hitRate)
	if err != nil {
		return nil, errors.Join(ErrInstrument, err)
	}

	return &Cache{next: m, requests: requests, duration: duration, registration: reg}, nil
}

// Get calls cache.Manager.Get and counts a hit or a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	start := time.Now()
	v, ok := c.next.Get(ctx, key)
	result := "miss"
	if ok {
		result = "hit"
	}
	c.record(ctx, "get", result, start)
	return v, ok
}

// GetString is Get for string values.
func (c *Cache) GetString(ctx context.Context, key string) (string, bool) {
	v, ok := c.Get(ctx, key)
	return string(v), ok
}

// Set calls cache.Manager.Set.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := c.next.Set(ctx, key, value, ttl)
	c.record(ctx, "set", outcome(err), start)
	return err
}

// SetString is Set for string values.
func (c *Cache) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.Set(ctx, key, []byte(value), ttl)
}

// Delete calls cache.Manager.Delete.
func (c *Cache) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := c.next.Delete(ctx, key)
	c.record(ctx, "delete", outcome(err), start)
	return err
}

// Clear calls cache.Manager.Clear.
func (c *Cache) Clear(ctx context.Context) error {
	start := time.Now()
	err := c.next.Clear(ctx)
	c.record(ctx, "clear", outcome(err), start)
	return err
}

// Stats returns the wrapped manager's stats.
func (c *Cache) Stats(ctx context.Context) cache.Stats {
	return c.next.Stats(ctx)
}

// Close unregisters the gauges and closes the wrapped manager.
func (c *Cache) Close() error {
	return errors.Join(c.registration.Unregister(), c.next.Close())
}

func (c *Cache) record(ctx context.Context, op, result string, start time.Time) {
	c.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op), attribute.String("result", result)))
	c.duration.Record(ctx, milliseconds(time.Since(start)), metric.WithAttributes(attribute.String("op", op)))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
