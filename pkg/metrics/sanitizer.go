package metrics

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dmitrymomot/styledoc/pkg/sanitizer"
)

// Sanitizer records call counts, errors and latency of a sanitizer.Sanitizer.
// It has the same methods, so callers can take either.
type Sanitizer struct {
	next     *sanitizer.Sanitizer
	calls    metric.Int64Counter
	errs     metric.Int64Counter
	duration metric.Float64Histogram
}

// WrapSanitizer instruments s with meter. A nil meter records nothing.
func WrapSanitizer(s *sanitizer.Sanitizer, meter metric.Meter) (*Sanitizer, error) {
	meter = orNoop(meter)

	calls, err := meter.Int64Counter(
		"sanitizer.calls",
		metric.WithDescription("Sanitizer and CSS filter calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, errors.Join(ErrInstrument, err)
	}
	errs, err := meter.Int64Counter(
		"sanitizer.errors",
		metric.WithDescription("Sanitizer calls that returned an error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, errors.Join(ErrInstrument, err)
	}
	duration, err := meter.Float64Histogram(
		"sanitizer.duration_ms",
		metric.WithDescription("Sanitizer call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, errors.Join(ErrInstrument, err)
	}

	return &Sanitizer{next: s, calls: calls, errs: errs, duration: duration}, nil
}

// Policy returns the wrapped sanitizer's policy.
func (s *Sanitizer) Policy() *sanitizer.Policy { return s.next.Policy() }

// Sanitize calls sanitizer.Sanitizer.Sanitize. Errors are counted with an
// error attribute: "too_large" or "other".
func (s *Sanitizer) Sanitize(ctx context.Context, raw string) (string, error) {
	start := time.Now()
	out, err := s.next.Sanitize(ctx, raw)
	s.record(ctx, "sanitize", start, err)
	return out, err
}

// FilterCSS calls sanitizer.Sanitizer.FilterCSS.
func (s *Sanitizer) FilterCSS(ctx context.Context, raw string) string {
	start := time.Now()
	out := s.next.FilterCSS(ctx, raw)
	s.record(ctx, "css", start, nil)
	return out
}

// FilterInlineStyle calls sanitizer.Sanitizer.FilterInlineStyle.
func (s *Sanitizer) FilterInlineStyle(ctx context.Context, raw string) string {
	start := time.Now()
	out := s.next.FilterInlineStyle(ctx, raw)
	s.record(ctx, "inline_style", start, nil)
	return out
}

func (s *Sanitizer) record(ctx context.Context, op string, start time.Time, err error) {
	opt := metric.WithAttributes(attribute.String("op", op))
	s.calls.Add(ctx, 1, opt)
	s.duration.Record(ctx, milliseconds(time.Since(start)), opt)
	if err != nil {
		kind := "other"
		if errors.Is(err, sanitizer.ErrContentTooLarge) {
			kind = "too_large"
		}
		s.errs.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op), attribute.String("error", kind)))
	}
}
