package lockfree

import (
	"iter"
	"sync/atomic"
)

// List is a lock-free singly linked list that keeps elements in insertion
// order. The zero value is an empty list ready to use.
//
// List does not detect duplicates. Callers that key elements by identity
// must not add an element equal to one already linked.
type List[E comparable] struct {
	head node[E]
	tail atomic.Pointer[node[E]] // hint only, may lag or point at a removed node
	size atomic.Int64

	appends  atomic.Uint64
	removals atomic.Uint64
	retries  atomic.Uint64
}

// Stats reports cumulative structural activity on a List.
type Stats struct {
	// Appends is the number of successful Add calls.
	Appends uint64
	// Removals is the number of elements removed.
	Removals uint64
	// Retries is the number of CAS attempts lost to a concurrent writer.
	Retries uint64
}

// New creates a list holding elems in order.
func New[E comparable](elems ...E) *List[E] {
	l := &List[E]{}
	l.AddAll(elems...)
	return l
}

// Add appends e at the end of the list.
func (l *List[E]) Add(e E) {
	n := &node[E]{value: e}
	for {
		last, lastLink := l.last()
		if last.next.CompareAndSwap(lastLink, &link[E]{next: n}) {
			break
		}
		l.retries.Add(1)
	}
	l.tail.Store(n)
	l.size.Add(1)
	l.appends.Add(1)
}

// AddAll appends elems in order. Other writers may interleave.
func (l *List[E]) AddAll(elems ...E) {
	for _, e := range elems {
		l.Add(e)
	}
}

// Remove removes the first element equal to e.
// It returns false if no such element is linked.
func (l *List[E]) Remove(e E) bool {
	_, ok := l.RemoveFirst(func(x E) bool { return x == e })
	return ok
}

// RemoveFirst removes the first element for which match returns true and
// returns it.
func (l *List[E]) RemoveFirst(match func(E) bool) (E, bool) {
	for {
		pred, predLink, curr, currLink := l.search(&l.head, match)
		if curr == nil {
			var zero E
			return zero, false
		}

		succ := currLink.successor()
		if !curr.next.CompareAndSwap(currLink, &link[E]{next: succ, marked: true}) {
			// Someone appended after curr or removed it first.
			l.retries.Add(1)
			continue
		}
		l.size.Add(-1)
		l.removals.Add(1)

		// Best effort. If pred changed, the next writer walking past unlinks curr.
		pred.next.CompareAndSwap(predLink, &link[E]{next: succ})
		return curr.value, true
	}
}

// RemoveIf removes every element for which match returns true and reports
// how many were removed. Elements appended concurrently may be missed.
func (l *List[E]) RemoveIf(match func(E) bool) int {
	removed := 0
	for {
		if _, ok := l.RemoveFirst(match); !ok {
			return removed
		}
		removed++
	}
}

// Clear removes every element and reports how many were removed.
func (l *List[E]) Clear() int {
	return l.RemoveIf(func(E) bool { return true })
}

// ForEach calls visit for each element linked at the moment it is reached,
// in insertion order, until visit returns false.
//
// ForEach does not allocate and never sees an element twice. Elements added
// or removed while it runs may or may not be visited.
func (l *List[E]) ForEach(visit func(E) bool) {
	for n := l.head.next.Load().successor(); n != nil; n = n.next.Load().successor() {
		if n.live() && !visit(n.value) {
			return
		}
	}
}

// All returns a lazy sequence over the list. Each element is read from the
// live list when it is pulled, so concurrent changes can show up part way
// through. Ranging over the sequence again starts a fresh traversal.
func (l *List[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		l.ForEach(yield)
	}
}

// Find returns the first element for which match returns true.
func (l *List[E]) Find(match func(E) bool) (E, bool) {
	var (
		found E
		ok    bool
	)
	l.ForEach(func(e E) bool {
		if match(e) {
			found, ok = e, true
			return false
		}
		return true
	})
	return found, ok
}

// First returns the first linked element.
func (l *List[E]) First() (E, bool) {
	return l.Find(func(E) bool { return true })
}

// Contains reports whether an element equal to e is linked.
func (l *List[E]) Contains(e E) bool {
	_, ok := l.Find(func(x E) bool { return x == e })
	return ok
}

// Snapshot copies the elements seen by one traversal into a new slice.
func (l *List[E]) Snapshot() []E {
	out := make([]E, 0, l.Len())
	l.ForEach(func(e E) bool {
		out = append(out, e)
		return true
	})
	return out
}

// Len returns the number of linked elements.
func (l *List[E]) Len() int {
	// A remove can land between an append's link and its increment.
	if n := l.size.Load(); n > 0 {
		return int(n)
	}
	return 0
}

// IsEmpty reports whether a fresh traversal finds no element.
func (l *List[E]) IsEmpty() bool {
	_, ok := l.First()
	return !ok
}

// Stats returns cumulative counters for the list.
func (l *List[E]) Stats() Stats {
	return Stats{
		Appends:  l.appends.Load(),
		Removals: l.removals.Load(),
		Retries:  l.retries.Load(),
	}
}

// last returns the last live node and the link it was seen with.
func (l *List[E]) last() (*node[E], *link[E]) {
	start := &l.head
	if hint := l.tail.Load(); hint != nil && hint.live() {
		start = hint
	}
	pred, predLink, _, _ := l.search(start, nil)
	return pred, predLink
}

// search walks forward from start and returns the first live node accepted by
// match together with its predecessor and the links both were seen with.
// With a nil match, or when nothing matches, curr is nil and pred is the last
// live node. Marked nodes met on the way are unlinked; losing that CAS
// restarts the walk from head.
func (l *List[E]) search(start *node[E], match func(E) bool) (pred *node[E], predLink *link[E], curr *node[E], currLink *link[E]) {
retry:
	for {
		pred = start
		predLink = pred.next.Load()
		if predLink.isMarked() {
			start = &l.head
			continue
		}

		for {
			curr = predLink.successor()
			if curr == nil {
				return pred, predLink, nil, nil
			}

			currLink = curr.next.Load()
			if currLink.isMarked() {
				unlinked := &link[E]{next: currLink.successor()}
				if !pred.next.CompareAndSwap(predLink, unlinked) {
					l.retries.Add(1)
					start = &l.head
					continue retry
				}
				predLink = unlinked
				continue
			}

			if match != nil && match(curr.value) {
				return pred, predLink, curr, currLink
			}
			pred, predLink = curr, currLink
		}
	}
}
