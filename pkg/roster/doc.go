/*
Package roster keeps registries of contacts keyed by a numeric ID that many
goroutines can read while others add and remove contacts.

# Overview

A Roster owns a lock-free list (package lockfree) and is the only type that
can change it. Readers get a ContactList from Roster.View: a read-only value
that looks contacts up by ID, tests membership, and copies or streams the
contents. No reader ever blocks, and no reader ever waits for a writer.

# Basic Usage

Any comparable type with an ID method can be stored:

	type Friend struct {
	    UIN  int64
	    Nick string
	}

	func (f *Friend) ID() int64 { return f.UIN }

	friends := roster.New[*Friend]("friends")
	friends.Add(ctx, &Friend{UIN: 1, Nick: "alice"})
	friends.Add(ctx, &Friend{UIN: 2, Nick: "bob"})

	view := friends.View()
	bob, err := view.Get(2)
	if errors.Is(err, roster.ErrNotFound) {
	    // not a friend
	}
	fmt.Println(view) // [1, 2]

# Consistency

Each ContactList call runs its own traversal of the live list. A traversal
sees every contact linked for its whole duration, may or may not see contacts
added or removed while it runs, and never sees one contact twice. ToList and
ToSet return copies that later changes do not affect. All streams the live
list one contact at a time.

IDs must be unique among linked contacts. Adding a second contact with an ID
already linked is a caller error and is not detected.

# Events and Directories

WithBus makes a Roster publish an event.Event for every change. A Directory
holds many rosters keyed by a numeric ID, such as one member roster per group.
*/
package roster
