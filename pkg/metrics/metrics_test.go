package metrics_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/dmitrymomot/styledoc/pkg/cache"
	"github.com/dmitrymomot/styledoc/pkg/metrics"
	"github.com/dmitrymomot/styledoc/pkg/sanitizer"
)

func newReader(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader, mp
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumBy returns the counter value for the data point whose attributes
// include every given key/value pair.
func sumBy(t *testing.T, rm metricdata.ResourceMetrics, name string, kv ...attribute.KeyValue) int64 {
	t.Helper()
	m := findMetric(rm, name)
	require.NotNil(t, m, "metric %s not found", name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum[int64], got %T", m.Data)

	var total int64
	for _, dp := range sum.DataPoints {
		if hasAll(dp.Attributes, kv) {
			total += dp.Value
		}
	}
	return total
}

func hasAll(set attribute.Set, kv []attribute.KeyValue) bool {
	for _, want := range kv {
		got, ok := set.Value(want.Key)
		if !ok || got != want.Value {
			return false
		}
	}
	return true
}

func TestWrapSanitizer(t *testing.T) {
	reader, mp := newReader(t)
	policy := sanitizer.MustPolicy(sanitizer.PolicyConfig{
		AllowedTags:      []string{"p"},
		MaxContentLength: 20,
	})
	s, err := metrics.WrapSanitizer(sanitizer.New(policy), metrics.Meter(mp))
	require.NoError(t, err)

	ctx := context.Background()
	out, err := s.Sanitize(ctx, "<p>Hello</p><script>x</script>")
	require.Error(t, err, "input is over the 20 character limit")
	assert.Empty(t, out)

	out, err = s.Sanitize(ctx, "<p>Hello</p>")
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello</p>", out)

	assert.Empty(t, s.FilterCSS(ctx, "behavior: url(x.htc)"))
	assert.Empty(t, s.FilterInlineStyle(ctx, "p { color: red }"))
	assert.Same(t, policy, s.Policy())

	rm := collect(t, reader)
	assert.Equal(t, int64(2), sumBy(t, rm, "sanitizer.calls", attribute.String("op", "sanitize")))
	assert.Equal(t, int64(1), sumBy(t, rm, "sanitizer.calls", attribute.String("op", "css")))
	assert.Equal(t, int64(1), sumBy(t, rm, "sanitizer.calls", attribute.String("op", "inline_style")))
	assert.Equal(t, int64(1), sumBy(t, rm, "sanitizer.errors", attribute.String("error", "too_large")))

	hist := findMetric(rm, "sanitizer.duration_ms")
	require.NotNil(t, hist)
	data, ok := hist.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range data.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(4), count)
}

func TestWrapCache(t *testing.T) {
	reader, mp := newReader(t)
	c, err := metrics.WrapCache(cache.NewManager(cache.WithDiskDir(t.TempDir())), metrics.Meter(mp))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.SetString(ctx, "a", "1", time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Minute))
	v, ok := c.GetString(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "1", v)
	_, ok = c.Get(ctx, "missing")
	assert.False(t, ok)
	assert.ErrorIs(t, c.Set(ctx, "", []byte("x"), 0), cache.ErrInvalidKey)
	require.NoError(t, c.Delete(ctx, "b"))

	rm := collect(t, reader)
	assert.Equal(t, int64(1), sumBy(t, rm, "cache.requests", attribute.String("op", "get"), attribute.String("result", "hit")))
	assert.Equal(t, int64(1), sumBy(t, rm, "cache.requests", attribute.String("op", "get"), attribute.String("result", "miss")))
	assert.Equal(t, int64(2), sumBy(t, rm, "cache.requests", attribute.String("op", "set"), attribute.String("result", "ok")))
	assert.Equal(t, int64(1), sumBy(t, rm, "cache.requests", attribute.String("op", "set"), attribute.String("result", "error")))
	assert.Equal(t, int64(1), sumBy(t, rm, "cache.requests", attribute.String("op", "delete")))

	entries := findMetric(rm, "cache.entries")
	require.NotNil(t, entries)
	gauge, ok := entries.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	sizes := map[string]int64{}
	for _, dp := range gauge.DataPoints {
		tier, _ := dp.Attributes.Value("tier")
		sizes[tier.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"memory": 1, "disk": 1}, sizes)

	hitRate := findMetric(rm, "cache.hit_rate")
	require.NotNil(t, hitRate)
	rate, ok := hitRate.Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, rate.DataPoints, 1)
	assert.InDelta(t, 0.5, rate.DataPoints[0].Value, 1e-9)

	assert.Equal(t, c.Stats(ctx).Hits, int64(1))
	require.NoError(t, c.Close())
}

func TestNilMeter(t *testing.T) {
	s, err := metrics.WrapSanitizer(sanitizer.New(nil), nil)
	require.NoError(t, err)
	out, err := s.Sanitize(context.Background(), "<p>x</p>")
	require.NoError(t, err)
	assert.Equal(t, "<p>x</p>", out)

	c, err := metrics.WrapCache(cache.NewManager(), nil)
	require.NoError(t, err)
	require.NoError(t, c.SetString(context.Background(), "k", "v", 0))
	require.NoError(t, c.Close())
}

func TestNewPrometheus(t *testing.T) {
	mp, handler, err := metrics.NewPrometheus()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	c, err := metrics.WrapCache(cache.NewManager(), metrics.Meter(mp))
	require.NoError(t, err)
	require.NoError(t, c.SetString(context.Background(), "k", "v", 0))
	c.Get(context.Background(), "k")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	text := string(body)
	assert.True(t, strings.Contains(text, "cache_requests"), "otel counters are exported")
	assert.True(t, strings.Contains(text, `tier="memory"`))
	assert.True(t, strings.Contains(text, "go_goroutines"))
}

func TestNewStdout(t *testing.T) {
	var buf strings.Builder
	mp, err := metrics.NewStdout(&buf, time.Hour)
	require.NoError(t, err)

	s, err := metrics.WrapSanitizer(sanitizer.New(nil), metrics.Meter(mp))
	require.NoError(t, err)
	_, err = s.Sanitize(context.Background(), "<p>x</p>")
	require.NoError(t, err)

	require.NoError(t, mp.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "sanitizer.calls")
}

func TestNewProvider(t *testing.T) {
	t.Run("prometheus by default", func(t *testing.T) {
		mp, handler, err := metrics.NewProvider("")
		require.NoError(t, err)
		t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
		assert.NotNil(t, handler)
	})

	t.Run("none", func(t *testing.T) {
		mp, handler, err := metrics.NewProvider(metrics.ExporterNone)
		require.NoError(t, err)
		assert.Nil(t, handler)
		assert.NoError(t, mp.Shutdown(context.Background()))
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := metrics.NewProvider("statsd")
		assert.ErrorIs(t, err, metrics.ErrExporter)
	})
}
