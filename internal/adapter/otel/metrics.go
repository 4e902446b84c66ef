package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "anycode"

// Metrics holds all host metric instruments.
type Metrics struct {
	FilesDiscovered metric.Int64Counter
	FilesSubmitted  metric.Int64Counter
	InitDuration    metric.Float64Histogram
	ServerRestarts  metric.Int64Counter
	FileReads       metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.FilesDiscovered, err = meter.Int64Counter("anycode.index.files_discovered",
		metric.WithDescription("Files discovered during workspace enumeration"))
	if err != nil {
		return nil, err
	}

	m.FilesSubmitted, err = meter.Int64Counter("anycode.index.files_submitted",
		metric.WithDescription("Files submitted to the analysis server for indexing"))
	if err != nil {
		return nil, err
	}

	m.InitDuration, err = meter.Float64Histogram("anycode.index.duration_seconds",
		metric.WithDescription("Bulk initialization duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.ServerRestarts, err = meter.Int64Counter("anycode.server.restarts",
		metric.WithDescription("Analysis server restarts triggered by configuration changes"))
	if err != nil {
		return nil, err
	}

	m.FileReads, err = meter.Int64Counter("anycode.server.file_reads",
		metric.WithDescription("file/read requests answered"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
