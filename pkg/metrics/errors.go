package metrics

import "errors"

var (
	// ErrInstrument is returned when an instrument cannot be created.
	ErrInstrument = errors.New("metrics: failed to create instrument")
	// ErrExporter is returned when a metrics exporter cannot be created.
	ErrExporter = errors.New("metrics: failed to create exporter")
)
