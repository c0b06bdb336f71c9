package sim

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/roster/pkg/roster"
	"github.com/randalmurphal/roster/pkg/roster/config"
	"github.com/randalmurphal/roster/pkg/roster/event"
)

func smallConfig() config.Simulation {
	s := config.DefaultSimulation()
	s.Writers = 4
	s.Readers = 4
	s.ContactsPerWriter = 200
	s.RemoveEvery = 3
	return s
}

type recordingMetrics struct {
	mu         sync.Mutex
	adds       int
	removes    int
	traversals int
	retries    []uint64
}

func (m *recordingMetrics) RecordAdd(context.Context, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adds++
}

func (m *recordingMetrics) RecordRemove(_ context.Context, _ string, found bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if found {
		m.removes++
	}
}

func (m *recordingMetrics) RecordSize(context.Context, string, int) {}

func (m *recordingMetrics) RecordRetries(_ context.Context, _ string, retries uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries = append(m.retries, retries)
}

func (m *recordingMetrics) RecordTraversal(context.Context, string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traversals++
}

type recordingSpans struct {
	mu     sync.Mutex
	starts []string
	events []string
	errs   []error
}

func (s *recordingSpans) StartSimulationSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts = append(s.starts, "simulation")
	return ctx, trace.SpanFromContext(ctx)
}

func (s *recordingSpans) StartPhaseSpan(ctx context.Context, phase string) (context.Context, trace.Span) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts = append(s.starts, phase)
	return ctx, trace.SpanFromContext(ctx)
}

func (s *recordingSpans) EndSpanWithError(_ trace.Span, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *recordingSpans) AddSpanEvent(_ context.Context, name string, _ ...attribute.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, name)
}

func TestRun(t *testing.T) {
	report, err := Run(context.Background(), smallConfig())
	require.NoError(t, err)

	// 200 per writer, every third removed: 66 removals each.
	assert.Equal(t, int64(800), report.Added)
	assert.Equal(t, int64(264), report.Removed)
	assert.Equal(t, 536, report.FinalSize)
	assert.Equal(t, int64(0), report.Duplicates)
	assert.GreaterOrEqual(t, report.Traversals, int64(8), "each reader makes at least one pass of two traversals")
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "friends", report.Roster)
	assert.Positive(t, report.Duration)
}

func TestRun_NoRemovals(t *testing.T) {
	cfg := smallConfig()
	cfg.RemoveEvery = 0

	report, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(0), report.Removed)
	assert.Equal(t, 800, report.FinalSize)
}

func TestRun_NoReaders(t *testing.T) {
	cfg := smallConfig()
	cfg.Readers = 0

	report, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(0), report.Traversals)
	assert.Equal(t, 536, report.FinalSize)
}

func TestRun_ReaderPause(t *testing.T) {
	cfg := smallConfig()
	cfg.ReaderPause = time.Millisecond

	_, err := Run(context.Background(), cfg)
	require.NoError(t, err)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Writers = 0

	report, err := Run(context.Background(), cfg)
	assert.ErrorIs(t, err, config.ErrInvalid)
	assert.Empty(t, report.RunID)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	spans := &recordingSpans{}
	_, err := Run(ctx, smallConfig(), WithSpanManager(spans))
	assert.ErrorIs(t, err, context.Canceled)

	// verify is skipped after a failed churn
	assert.Equal(t, []string{"simulation", "churn"}, spans.starts)
}

func TestRun_Metrics(t *testing.T) {
	m := &recordingMetrics{}
	report, err := Run(context.Background(), smallConfig(), WithMetrics(m))
	require.NoError(t, err)

	assert.Equal(t, 800, m.adds)
	assert.Equal(t, 264, m.removes)
	assert.Equal(t, int(report.Traversals), m.traversals)
	assert.Equal(t, []uint64{report.Retries}, m.retries)
}

func TestRun_Spans(t *testing.T) {
	spans := &recordingSpans{}
	_, err := Run(context.Background(), smallConfig(), WithSpanManager(spans))
	require.NoError(t, err)

	assert.Equal(t, []string{"simulation", "churn", "verify"}, spans.starts)
	assert.Equal(t, []string{"writers.done"}, spans.events)
	assert.Equal(t, []error{nil, nil, nil}, spans.errs)
}

func TestRun_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	report, err := Run(context.Background(), smallConfig(), WithLogger(logger))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "simulation starting")
	assert.Contains(t, out, "simulation completed")
	assert.Contains(t, out, report.RunID)
	assert.NotContains(t, out, "contact added", "per-contact logs are debug level")
}

func TestRun_EventsOnCallerBus(t *testing.T) {
	bus := event.NewBus(event.DefaultBusConfig)
	defer bus.Close()

	var added, removed atomic.Int64
	bus.Subscribe([]event.Type{event.ContactAdded}, func(context.Context, event.Event) error {
		added.Add(1)
		return nil
	})
	bus.Subscribe([]event.Type{event.ContactRemoved}, func(context.Context, event.Event) error {
		removed.Add(1)
		return nil
	})

	cfg := smallConfig()
	cfg.Events = true
	report, err := Run(context.Background(), cfg, WithBus(bus))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return added.Load() == 800 && removed.Load() == 264
	}, 5*time.Second, 5*time.Millisecond)
	assert.LessOrEqual(t, report.Events, int64(800+264))
}

func TestRun_EventsOnOwnBus(t *testing.T) {
	cfg := smallConfig()
	cfg.Events = true

	report, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.LessOrEqual(t, report.Events, int64(800+264))
}

func TestContactIDs(t *testing.T) {
	r := &run{cfg: smallConfig()}

	assert.Equal(t, int64(1), r.contact(0, 0).ID())
	assert.Equal(t, int64(200), r.contact(0, 199).ID())
	assert.Equal(t, int64(201), r.contact(1, 0).ID())
	assert.Equal(t, Contact{UIN: 403, Writer: 2, Seq: 2}, r.contact(2, 2))

	assert.False(t, r.removes(0))
	assert.False(t, r.removes(1))
	assert.True(t, r.removes(2))
}

func TestCheckLookup(t *testing.T) {
	ctx := context.Background()
	r := roster.New[Contact]("lookup")
	present := Contact{UIN: 5, Writer: 1, Seq: 4}
	r.Add(ctx, present)
	view := r.View()

	assert.NoError(t, checkLookup(view, present))
	assert.NoError(t, checkLookup(view, Contact{UIN: 6}), "a concurrently removed contact is not found")

	err := checkLookup(view, Contact{UIN: 5, Writer: 0, Seq: 4})
	assert.ErrorIs(t, err, ErrInvariant)
	var ierr *InvariantError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, "lookup", ierr.Check)
}

func TestInvariantError(t *testing.T) {
	err := error(violation("size", "Len() = %d, want %d", 3, 4))

	assert.ErrorIs(t, err, ErrInvariant)
	var ierr *InvariantError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, "size", ierr.Check)
	assert.Equal(t, "roster invariant violated: size: Len() = 3, want 4", err.Error())
}

func TestReportString(t *testing.T) {
	r := Report{RunID: "abc", Roster: "friends", Writers: 1, Added: 3, FinalSize: 3, Duration: time.Second}
	assert.Contains(t, r.String(), `run abc on "friends"`)
	assert.Contains(t, r.String(), "took 1s")
}
