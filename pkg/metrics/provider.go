package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Exporter names accepted by NewProvider.
const (
	ExporterPrometheus = "prometheus"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// DefaultStdoutInterval is how often NewStdout exports.
const DefaultStdoutInterval = time.Minute

// NewProvider returns a meter provider for the named exporter. Only the
// prometheus exporter comes with a scrape handler; the others return a nil
// handler. An empty name means prometheus.
func NewProvider(name string) (*sdkmetric.MeterProvider, http.Handler, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ExporterPrometheus:
		return NewPrometheus()
	case ExporterStdout:
		mp, err := NewStdout(os.Stdout, DefaultStdoutInterval)
		return mp, nil, err
	case ExporterNone:
		return sdkmetric.NewMeterProvider(), nil, nil
	default:
		return nil, nil, errors.Join(ErrExporter, fmt.Errorf("unknown exporter %q", name))
	}
}

// NewStdout returns a meter provider writing JSON snapshots to w every
// interval, and once more on shutdown. Non-positive intervals use
// DefaultStdoutInterval.
func NewStdout(w io.Writer, interval time.Duration) (*sdkmetric.MeterProvider, error) {
	if interval <= 0 {
		interval = DefaultStdoutInterval
	}
	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, errors.Join(ErrExporter, err)
	}
	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)), nil
}
