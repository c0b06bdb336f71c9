// Package event publishes roster membership changes to subscribers.
//
// A Roster configured with a Bus publishes one Event per contact added or
// removed. Subscribers receive events on their own goroutine, so a slow
// handler never holds up the writer that changed the roster beyond the
// channel send.
//
//	bus := event.NewBus(event.BusConfig{NonBlocking: true})
//	defer bus.Close()
//
//	bus.Subscribe([]event.Type{event.ContactRemoved}, func(ctx context.Context, e event.Event) error {
//	    log.Printf("%d left %s", e.ContactID, e.Roster)
//	    return nil
//	})
package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type names a kind of membership change.
type Type string

const (
	// ContactAdded is published after a contact is appended to a roster.
	ContactAdded Type = "contact.added"

	// ContactRemoved is published after a contact is removed from a roster.
	ContactRemoved Type = "contact.removed"
)

// Event describes one membership change. Events are immutable values.
type Event struct {
	// ID uniquely identifies this event.
	ID string `json:"id"`
	// Type is the kind of change.
	Type Type `json:"type"`
	// Roster is the name of the roster that changed.
	Roster string `json:"roster"`
	// ContactID is the ID of the contact added or removed.
	ContactID int64 `json:"contact_id"`
	// Timestamp is when the change was applied.
	Timestamp time.Time `json:"timestamp"`
}

// New creates an event with a fresh ID and the current time.
func New(typ Type, roster string, contactID int64) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Roster:    roster,
		ContactID: contactID,
		Timestamp: time.Now(),
	}
}

// Handler processes a delivered event.
type Handler func(ctx context.Context, evt Event) error

// Publisher is the narrow capability a roster needs.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}
