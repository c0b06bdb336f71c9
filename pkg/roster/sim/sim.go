package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/roster/pkg/roster"
	"github.com/randalmurphal/roster/pkg/roster/config"
	"github.com/randalmurphal/roster/pkg/roster/event"
	"github.com/randalmurphal/roster/pkg/roster/observability"
)

// Contact is the element churned by the simulation.
type Contact struct {
	UIN    int64
	Writer int
	Seq    int
}

// ID implements roster.Contact.
func (c Contact) ID() int64 {
	return c.UIN
}

// Report summarizes a run.
type Report struct {
	RunID      string        `json:"run_id"`
	Roster     string        `json:"roster"`
	Writers    int           `json:"writers"`
	Readers    int           `json:"readers"`
	Added      int64         `json:"added"`
	Removed    int64         `json:"removed"`
	FinalSize  int           `json:"final_size"`
	Retries    uint64        `json:"retries"`
	Traversals int64         `json:"traversals"`
	Duplicates int64         `json:"duplicates"`
	Events     int64         `json:"events"`
	Duration   time.Duration `json:"duration"`
}

// Option configures Run.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	bus     event.Bus
}

// WithLogger logs run start, completion and failure, and passes the
// logger to the roster.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records roster changes, traversals and retries.
// Default: observability.NoopMetrics{}
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithSpanManager wraps the run and its phases in spans.
// Default: observability.NoopSpanManager{}
func WithSpanManager(s observability.SpanManager) Option {
	return func(o *options) {
		if s != nil {
			o.spans = s
		}
	}
}

// WithBus publishes membership events on b when Simulation.Events is set.
// The caller keeps ownership of b. Without this option Run creates and
// closes its own bus.
func WithBus(b event.Bus) Option {
	return func(o *options) {
		o.bus = b
	}
}

type run struct {
	cfg     config.Simulation
	id      string
	roster  *roster.Roster[Contact]
	metrics observability.MetricsRecorder

	added      atomic.Int64
	removed    atomic.Int64
	traversals atomic.Int64
	duplicates atomic.Int64
	events     atomic.Int64
}

// Run executes one simulation described by cfg.
//
// It returns a *config.ValidationError for bad settings, an *InvariantError
// when the final roster is inconsistent, and ctx.Err() when cancelled.
// The report is filled in as far as the run got.
func Run(ctx context.Context, cfg config.Simulation, opts ...Option) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}

	o := options{
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &run{
		cfg:     cfg,
		id:      uuid.NewString(),
		metrics: o.metrics,
	}

	rosterOpts := []roster.Option{
		roster.WithLogger(o.logger),
		roster.WithMetrics(o.metrics),
	}
	if cfg.Events {
		bus := o.bus
		if bus == nil {
			local := event.NewBus(event.DefaultBusConfig)
			defer local.Close()
			bus = local
		}
		sub := bus.SubscribeAll(func(context.Context, event.Event) error {
			r.events.Add(1)
			return nil
		})
		if sub != nil {
			defer sub.Unsubscribe()
		}
		rosterOpts = append(rosterOpts, roster.WithBus(bus))
	}
	r.roster = roster.New[Contact](cfg.Roster, rosterOpts...)

	ctx, span := o.spans.StartSimulationSpan(ctx, cfg.Roster, r.id)
	observability.LogSimulationStart(o.logger, r.id, cfg.Writers, cfg.Readers)
	elapsed := observability.TimedOperation()
	start := time.Now()

	err := r.churn(ctx, o.spans)
	if err == nil {
		err = r.verify(ctx, o.spans)
	}

	stats := r.roster.Stats()
	o.metrics.RecordRetries(ctx, cfg.Roster, stats.Retries)

	report := Report{
		RunID:      r.id,
		Roster:     cfg.Roster,
		Writers:    cfg.Writers,
		Readers:    cfg.Readers,
		Added:      r.added.Load(),
		Removed:    r.removed.Load(),
		FinalSize:  r.roster.View().Len(),
		Retries:    stats.Retries,
		Traversals: r.traversals.Load(),
		Duplicates: r.duplicates.Load(),
		Events:     r.events.Load(),
		Duration:   time.Since(start),
	}

	o.spans.EndSpanWithError(span, err)
	if err != nil {
		observability.LogSimulationError(o.logger, r.id, err, elapsed())
		return report, err
	}
	observability.LogSimulationComplete(o.logger, r.id, elapsed(), report.FinalSize, report.Traversals)
	return report, nil
}

// churn runs writers and readers until every writer finishes.
func (r *run) churn(ctx context.Context, spans observability.SpanManager) (err error) {
	ctx, span := spans.StartPhaseSpan(ctx, "churn")
	defer func() { spans.EndSpanWithError(span, err) }()

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	var writers sync.WaitGroup

	for w := range r.cfg.Writers {
		writers.Add(1)
		g.Go(func() error {
			defer writers.Done()
			return r.write(gctx, w)
		})
	}
	for range r.cfg.Readers {
		g.Go(func() error {
			return r.read(gctx, done)
		})
	}

	go func() {
		writers.Wait()
		close(done)
	}()

	if err := g.Wait(); err != nil {
		return err
	}
	spans.AddSpanEvent(ctx, "writers.done",
		attribute.Int64("added", r.added.Load()),
		attribute.Int64("removed", r.removed.Load()),
	)
	return nil
}

func (r *run) contact(writer, seq int) Contact {
	return Contact{
		UIN:    int64(writer)*int64(r.cfg.ContactsPerWriter) + int64(seq) + 1,
		Writer: writer,
		Seq:    seq,
	}
}

func (r *run) removes(seq int) bool {
	return r.cfg.RemoveEvery > 0 && (seq+1)%r.cfg.RemoveEvery == 0
}

func (r *run) write(ctx context.Context, writer int) error {
	for seq := range r.cfg.ContactsPerWriter {
		if err := ctx.Err(); err != nil {
			return err
		}

		c := r.contact(writer, seq)
		r.roster.Add(ctx, c)
		r.added.Add(1)

		if !r.removes(seq) {
			continue
		}
		// Only this writer removes its own contacts, so the removal must win.
		if _, ok := r.roster.Remove(ctx, c.UIN); !ok {
			return violation("remove", "writer %d could not remove its contact %d", writer, c.UIN)
		}
		r.removed.Add(1)
	}
	return nil
}

// read traverses the roster until done is closed. It always makes at
// least one pass.
func (r *run) read(ctx context.Context, done <-chan struct{}) error {
	view := r.roster.View()
	seen := make(map[int64]struct{})

	for {
		clear(seen)
		visited := 0
		view.ForEach(func(c Contact) bool {
			r.observe(seen, c.UIN)
			visited++
			return true
		})
		r.pass(ctx, visited)

		if n := view.Len(); n < 0 {
			return violation("size", "Len() = %d during churn", n)
		}
		if c, ok := view.FirstOrZero(); ok {
			if err := checkLookup(view, c); err != nil {
				return err
			}
		}

		clear(seen)
		visited = 0
		for c := range view.All() {
			r.observe(seen, c.UIN)
			visited++
		}
		r.pass(ctx, visited)

		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if r.cfg.ReaderPause > 0 {
			select {
			case <-time.After(r.cfg.ReaderPause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// checkLookup looks c up by ID. c may be removed concurrently, so a
// not-found error is as valid as finding c itself.
func checkLookup(view roster.ContactList[Contact], c Contact) error {
	got, err := view.Get(c.UIN)
	switch {
	case err == nil && got != c:
		return violation("lookup", "Get(%d) = %+v, want %+v", c.UIN, got, c)
	case err != nil && !errors.Is(err, roster.ErrNotFound):
		return violation("lookup", "Get(%d): %v", c.UIN, err)
	}
	return nil
}

func (r *run) observe(seen map[int64]struct{}, id int64) {
	if _, dup := seen[id]; dup {
		r.duplicates.Add(1)
		return
	}
	seen[id] = struct{}{}
}

func (r *run) pass(ctx context.Context, visited int) {
	r.traversals.Add(1)
	r.metrics.RecordTraversal(ctx, r.cfg.Roster, visited)
}

// verify checks the quiescent roster against what the writers did.
func (r *run) verify(ctx context.Context, spans observability.SpanManager) (err error) {
	_, span := spans.StartPhaseSpan(ctx, "verify")
	defer func() { spans.EndSpanWithError(span, err) }()

	view := r.roster.View()

	if d := r.duplicates.Load(); d > 0 {
		return violation("duplicates", "readers saw %d duplicate contacts", d)
	}

	want := int(r.added.Load() - r.removed.Load())
	if got := view.Len(); got != want {
		return violation("size", "Len() = %d, want %d", got, want)
	}

	lastSeq := make(map[int]int, r.cfg.Writers)
	count := 0
	view.ForEach(func(c Contact) bool {
		count++
		if last, ok := lastSeq[c.Writer]; ok && c.Seq <= last {
			err = violation("order", "writer %d contact %d follows %d", c.Writer, c.Seq, last)
			return false
		}
		lastSeq[c.Writer] = c.Seq
		return true
	})
	if err != nil {
		return err
	}
	if count != want {
		return violation("traversal", "visited %d contacts, want %d", count, want)
	}

	for w := range r.cfg.Writers {
		for seq := range r.cfg.ContactsPerWriter {
			c := r.contact(w, seq)
			got, gerr := view.Get(c.UIN)
			switch {
			case r.removes(seq) && gerr == nil:
				return violation("removed", "contact %d is still present", c.UIN)
			case !r.removes(seq) && gerr != nil:
				return violation("lookup", "Get(%d): %v", c.UIN, gerr)
			case !r.removes(seq) && got != c:
				return violation("lookup", "Get(%d) = %+v, want %+v", c.UIN, got, c)
			}
		}
	}
	return nil
}

func (r Report) String() string {
	return fmt.Sprintf("run %s on %q: %d writers, %d readers, added %d, removed %d, final %d, retries %d, traversals %d, duplicates %d, events %d, took %s",
		r.RunID, r.Roster, r.Writers, r.Readers, r.Added, r.Removed, r.FinalSize,
		r.Retries, r.Traversals, r.Duplicates, r.Events, r.Duration)
}
