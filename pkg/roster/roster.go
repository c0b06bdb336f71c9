package roster

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/roster/pkg/roster/event"
	"github.com/randalmurphal/roster/pkg/roster/lockfree"
	"github.com/randalmurphal/roster/pkg/roster/observability"
)

// Roster owns a lock-free list of contacts and is the only way to change it.
// Hand out View() to code that should only read.
//
// All methods are safe for concurrent use. Writers coordinate through the
// list's CAS protocol, not a lock.
type Roster[C Contact] struct {
	name    string
	list    lockfree.List[C]
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	bus     event.Publisher
}

// Option configures a Roster.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	bus     event.Publisher
}

// WithLogger logs every change at debug level.
// Default: no logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records changes and sizes.
// Default: observability.NoopMetrics{}
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithBus publishes an event for every contact added or removed.
// Default: no events.
func WithBus(p event.Publisher) Option {
	return func(o *options) {
		o.bus = p
	}
}

// New creates an empty roster.
//
// Example:
//
//	friends := roster.New[*Friend]("friends", roster.WithLogger(logger))
//	friends.Add(ctx, alice)
//	view := friends.View()
func New[C Contact](name string, opts ...Option) *Roster[C] {
	o := options{metrics: observability.NoopMetrics{}}
	for _, opt := range opts {
		opt(&o)
	}

	return &Roster[C]{
		name:    name,
		logger:  observability.EnrichLogger(o.logger, name),
		metrics: o.metrics,
		bus:     o.bus,
	}
}

// Name returns the roster name used in logs, metrics and events.
func (r *Roster[C]) Name() string {
	return r.name
}

// View returns a read-only view of the roster.
func (r *Roster[C]) View() ContactList[C] {
	return NewContactList(&r.list)
}

// Add appends c. The caller must ensure no linked contact shares c's ID.
func (r *Roster[C]) Add(ctx context.Context, c C) {
	r.list.Add(c)
	r.changed(ctx, event.ContactAdded, c.ID())
}

// AddAll appends contacts in order.
func (r *Roster[C]) AddAll(ctx context.Context, contacts ...C) {
	for _, c := range contacts {
		r.Add(ctx, c)
	}
}

// Remove removes the contact with the given ID and returns it.
func (r *Roster[C]) Remove(ctx context.Context, id int64) (C, bool) {
	return r.removeFirst(ctx, func(c C) bool { return c.ID() == id })
}

// RemoveContact removes c itself, compared with ==.
func (r *Roster[C]) RemoveContact(ctx context.Context, c C) bool {
	_, ok := r.removeFirst(ctx, func(x C) bool { return x == c })
	return ok
}

// RemoveIf removes every contact accepted by match and reports how many.
func (r *Roster[C]) RemoveIf(ctx context.Context, match func(C) bool) int {
	removed := 0
	for {
		if _, ok := r.removeFirst(ctx, match); !ok {
			return removed
		}
		removed++
	}
}

// Clear removes every contact and reports how many.
func (r *Roster[C]) Clear(ctx context.Context) int {
	return r.RemoveIf(ctx, func(C) bool { return true })
}

// Stats returns cumulative counters of the underlying list.
func (r *Roster[C]) Stats() lockfree.Stats {
	return r.list.Stats()
}

func (r *Roster[C]) removeFirst(ctx context.Context, match func(C) bool) (C, bool) {
	c, ok := r.list.RemoveFirst(match)
	if !ok {
		r.metrics.RecordRemove(ctx, r.name, false)
		return c, false
	}
	r.changed(ctx, event.ContactRemoved, c.ID())
	return c, true
}

func (r *Roster[C]) changed(ctx context.Context, typ event.Type, id int64) {
	size := r.list.Len()
	if typ == event.ContactAdded {
		r.metrics.RecordAdd(ctx, r.name)
		observability.LogContactAdded(r.logger, id, size)
	} else {
		r.metrics.RecordRemove(ctx, r.name, true)
		observability.LogContactRemoved(r.logger, id, size)
	}
	r.metrics.RecordSize(ctx, r.name, size)

	if r.bus == nil {
		return
	}
	// The change is already applied; a failed publish is reported, not undone.
	if err := r.bus.Publish(ctx, event.New(typ, r.name, id)); err != nil {
		observability.LogPublishError(r.logger, id, string(typ), err)
	}
}
