package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Exporter names accepted by TelemetryConfig.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// ErrUnknownExporter indicates an exporter name SetupTelemetry does not know.
var ErrUnknownExporter = errors.New("unknown exporter")

// TelemetryConfig selects where metrics and spans are exported.
type TelemetryConfig struct {
	// ServiceName is reported as the service.name resource attribute.
	ServiceName string

	// MetricExporter is "stdout" or "none". Empty means none.
	MetricExporter string

	// TraceExporter is "stdout" or "none". Empty means none.
	TraceExporter string

	// Writer receives stdout exporter output. Default: os.Stdout
	Writer io.Writer
}

// ShutdownFunc flushes and stops the providers installed by SetupTelemetry.
type ShutdownFunc func(ctx context.Context) error

// SetupTelemetry installs global OTel meter and tracer providers for cfg.
// The returned ShutdownFunc must be called to flush pending data.
func SetupTelemetry(ctx context.Context, cfg TelemetryConfig) (ShutdownFunc, error) {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "roster"
	}

	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

	var shutdownFuncs []ShutdownFunc
	shutdown := func(ctx context.Context) error {
		var errs []error
		for _, fn := range shutdownFuncs {
			errs = append(errs, fn(ctx))
		}
		return errors.Join(errs...)
	}

	switch cfg.TraceExporter {
	case "", ExporterNone:
	case ExporterStdout:
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(cfg.Writer))
		if err != nil {
			return nil, fmt.Errorf("create stdout trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		tracer = otel.Tracer("roster")
		shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.TraceExporter)
	}

	switch cfg.MetricExporter {
	case "", ExporterNone:
	case ExporterStdout:
		exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(cfg.Writer))
		if err != nil {
			_ = shutdown(ctx)
			return nil, fmt.Errorf("create stdout metric exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		)
		otel.SetMeterProvider(mp)
		shutdownFuncs = append(shutdownFuncs, mp.Shutdown)
	default:
		_ = shutdown(ctx)
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.MetricExporter)
	}

	return shutdown, nil
}
