package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopMetrics(t *testing.T) {
	var m MetricsRecorder = NoopMetrics{}

	assert.NotPanics(t, func() {
		m.RecordAdd(context.Background(), "friends")
		m.RecordRemove(context.Background(), "friends", true)
		m.RecordRemove(context.Background(), "", false)
		m.RecordSize(context.Background(), "friends", 0)
		m.RecordRetries(context.Background(), "friends", 3)
		m.RecordTraversal(context.Background(), "friends", 10)
	})
}

func TestNoopSpanManager(t *testing.T) {
	var m SpanManager = NoopSpanManager{}
	ctx := context.Background()

	newCtx, span := m.StartSimulationSpan(ctx, "friends", "run-1")
	assert.Equal(t, ctx, newCtx)
	assert.NotNil(t, span)
	assert.False(t, span.IsRecording())

	newCtx, span = m.StartPhaseSpan(ctx, "churn")
	assert.Equal(t, ctx, newCtx)
	assert.False(t, span.IsRecording())

	assert.NotPanics(t, func() {
		m.EndSpanWithError(span, errors.New("test"))
		m.EndSpanWithError(nil, nil)
		m.AddSpanEvent(ctx, "event", attribute.String("k", "v"))
	})
}
