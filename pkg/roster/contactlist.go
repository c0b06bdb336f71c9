package roster

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/randalmurphal/roster/pkg/roster/lockfree"
)

// Contact is anything a roster can hold: a comparable value with a stable
// numeric ID. Pointer types satisfy comparable, so *Friend works as long as
// (*Friend).ID exists.
//
// IDs must be unique among linked contacts. Nothing checks this; with
// duplicates, which contact a lookup returns is unspecified.
type Contact interface {
	comparable
	ID() int64
}

// ContactList is a read-only view over a lock-free list of contacts.
//
// Every method runs a fresh traversal of the live list, so results reflect
// concurrent changes. ContactList is a small value; copy it freely. It never
// mutates the list.
type ContactList[C Contact] struct {
	list *lockfree.List[C]
}

// NewContactList returns a view over list.
func NewContactList[C Contact](list *lockfree.List[C]) ContactList[C] {
	return ContactList[C]{list: list}
}

// Get returns the contact with the given ID.
// The error wraps ErrNotFound when no linked contact has that ID.
func (cl ContactList[C]) Get(id int64) (C, error) {
	if c, ok := cl.Lookup(id); ok {
		return c, nil
	}
	var zero C
	return zero, &NotFoundError{ID: id}
}

// Lookup returns the contact with the given ID, if linked.
func (cl ContactList[C]) Lookup(id int64) (C, bool) {
	return cl.list.Find(func(c C) bool { return c.ID() == id })
}

// Filter returns the first contact accepted by match.
func (cl ContactList[C]) Filter(match func(C) bool) (C, bool) {
	return cl.list.Find(match)
}

// Has reports whether a contact with the given ID is linked.
func (cl ContactList[C]) Has(id int64) bool {
	_, ok := cl.Lookup(id)
	return ok
}

// Contains reports whether c itself is linked, compared with ==.
func (cl ContactList[C]) Contains(c C) bool {
	return cl.list.Contains(c)
}

// ContainsAll reports whether every given contact is linked.
// Each check is a separate traversal.
func (cl ContactList[C]) ContainsAll(contacts ...C) bool {
	for _, c := range contacts {
		if !cl.Contains(c) {
			return false
		}
	}
	return true
}

// Len returns the number of linked contacts.
func (cl ContactList[C]) Len() int {
	return cl.list.Len()
}

// IsEmpty reports whether no contact is linked.
func (cl ContactList[C]) IsEmpty() bool {
	return cl.list.IsEmpty()
}

// ForEach calls visit for each linked contact in insertion order until visit
// returns false.
func (cl ContactList[C]) ForEach(visit func(C) bool) {
	cl.list.ForEach(visit)
}

// First returns the first linked contact, or ErrEmpty, which also matches
// ErrNotFound.
func (cl ContactList[C]) First() (C, error) {
	if c, ok := cl.FirstOrZero(); ok {
		return c, nil
	}
	var zero C
	return zero, ErrEmpty
}

// FirstOrZero returns the first linked contact, or false when there is none.
func (cl ContactList[C]) FirstOrZero() (C, bool) {
	return cl.list.First()
}

// ToList copies the contacts seen by one traversal into a new slice.
func (cl ContactList[C]) ToList() []C {
	return cl.list.Snapshot()
}

// ToSet copies the contacts seen by one traversal into a new set.
func (cl ContactList[C]) ToSet() map[C]struct{} {
	set := make(map[C]struct{}, cl.list.Len())
	cl.list.ForEach(func(c C) bool {
		set[c] = struct{}{}
		return true
	})
	return set
}

// IDs returns the IDs of the contacts seen by one traversal.
func (cl ContactList[C]) IDs() []int64 {
	ids := make([]int64, 0, cl.list.Len())
	cl.list.ForEach(func(c C) bool {
		ids = append(ids, c.ID())
		return true
	})
	return ids
}

// All returns a lazy sequence of contacts. Each contact is read from the live
// list when pulled; see lockfree.List.All.
func (cl ContactList[C]) All() iter.Seq[C] {
	return cl.list.All()
}

// String renders the IDs seen by one traversal, e.g. "[1, 2, 3]".
func (cl ContactList[C]) String() string {
	var b strings.Builder
	b.WriteByte('[')
	first := true
	cl.list.ForEach(func(c C) bool {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(strconv.FormatInt(c.ID(), 10))
		return true
	})
	b.WriteByte(']')
	return b.String()
}

// Describe renders each contact with fmt, e.g. "ContactList(alice, bob)".
func (cl ContactList[C]) Describe() string {
	var b strings.Builder
	b.WriteString("ContactList(")
	first := true
	cl.list.ForEach(func(c C) bool {
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprint(&b, c)
		return true
	})
	b.WriteByte(')')
	return b.String()
}
