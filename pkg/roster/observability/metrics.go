package observability

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records roster metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordAdd records a contact appended to a roster.
	RecordAdd(ctx context.Context, roster string)

	// RecordRemove records a removal attempt and whether a contact was found.
	RecordRemove(ctx context.Context, roster string, found bool)

	// RecordSize records the current roster size.
	RecordSize(ctx context.Context, roster string, size int)

	// RecordRetries records CAS attempts lost to concurrent writers.
	RecordRetries(ctx context.Context, roster string, retries uint64)

	// RecordTraversal records how many contacts one traversal visited.
	RecordTraversal(ctx context.Context, roster string, visited int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	added     metric.Int64Counter
	removed   metric.Int64Counter
	misses    metric.Int64Counter
	size      metric.Int64Gauge
	retries   metric.Int64Counter
	traversal metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("roster")

	added, err := meter.Int64Counter("roster.contacts.added",
		metric.WithDescription("Number of contacts appended"),
	)
	if err != nil {
		return nil, err
	}

	removed, err := meter.Int64Counter("roster.contacts.removed",
		metric.WithDescription("Number of contacts removed"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter("roster.contacts.remove_misses",
		metric.WithDescription("Number of removals that found no contact"),
	)
	if err != nil {
		return nil, err
	}

	size, err := meter.Int64Gauge("roster.size",
		metric.WithDescription("Number of linked contacts"),
	)
	if err != nil {
		return nil, err
	}

	retries, err := meter.Int64Counter("roster.cas.retries",
		metric.WithDescription("CAS attempts lost to concurrent writers"),
	)
	if err != nil {
		return nil, err
	}

	traversal, err := meter.Int64Histogram("roster.traversal.visited",
		metric.WithDescription("Contacts visited per traversal"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		added:     added,
		removed:   removed,
		misses:    misses,
		size:      size,
		retries:   retries,
		traversal: traversal,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func rosterAttr(roster string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("roster", roster))
}

func (m *otelMetrics) RecordAdd(ctx context.Context, roster string) {
	m.added.Add(ctx, 1, rosterAttr(roster))
}

func (m *otelMetrics) RecordRemove(ctx context.Context, roster string, found bool) {
	if found {
		m.removed.Add(ctx, 1, rosterAttr(roster))
		return
	}
	m.misses.Add(ctx, 1, rosterAttr(roster))
}

func (m *otelMetrics) RecordSize(ctx context.Context, roster string, size int) {
	m.size.Record(ctx, int64(size), rosterAttr(roster))
}

func (m *otelMetrics) RecordRetries(ctx context.Context, roster string, retries uint64) {
	if retries == 0 {
		return
	}
	m.retries.Add(ctx, int64(retries), rosterAttr(roster))
}

func (m *otelMetrics) RecordTraversal(ctx context.Context, roster string, visited int) {
	m.traversal.Record(ctx, int64(visited), rosterAttr(roster))
}
