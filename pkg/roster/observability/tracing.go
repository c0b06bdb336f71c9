package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the roster tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("roster")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartSimulationSpan starts a span for a whole simulation run.
	StartSimulationSpan(ctx context.Context, roster, runID string) (context.Context, trace.Span)

	// StartPhaseSpan starts a span for one simulation phase.
	// The phase span should be a child of the simulation span.
	StartPhaseSpan(ctx context.Context, phase string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

func (m *otelSpanManager) StartSimulationSpan(ctx context.Context, roster, runID string) (context.Context, trace.Span) {
	return StartSimulationSpan(ctx, roster, runID)
}

func (m *otelSpanManager) StartPhaseSpan(ctx context.Context, phase string) (context.Context, trace.Span) {
	return StartPhaseSpan(ctx, phase)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// StartSimulationSpan starts a span for a simulation run.
// Uses the global OTel tracer.
func StartSimulationSpan(ctx context.Context, roster, runID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "roster.simulation",
		trace.WithAttributes(
			attribute.String("roster.name", roster),
			attribute.String("run.id", runID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartPhaseSpan starts a span for a simulation phase.
// Uses the global OTel tracer.
func StartPhaseSpan(ctx context.Context, phase string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "roster.phase."+phase,
		trace.WithAttributes(
			attribute.String("phase", phase),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
