// Package metrics instruments the sanitizer and the cache manager with
// OpenTelemetry.
//
// WrapSanitizer and WrapCache return wrappers exposing the same methods as
// the wrapped types, so consumers depend on small interfaces and accept
// either. Instruments:
//
//   - sanitizer.calls, sanitizer.errors, sanitizer.duration_ms (attribute op)
//   - cache.requests (attributes op, result), cache.duration_ms
//   - cache.entries (attribute tier) and cache.hit_rate, observed on collection
//
// NewPrometheus builds a meter provider backed by the OpenTelemetry
// Prometheus exporter and returns the /metrics handler for it. NewStdout
// exports periodic JSON snapshots instead. NewProvider picks one by name.
package metrics
