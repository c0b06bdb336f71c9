package roster

import (
	"slices"
	"strconv"
	"sync"

	"github.com/randalmurphal/roster/pkg/roster/lockfree"
)

// Directory holds one Roster per numeric key, for example the member roster
// of every group a client belongs to.
//
// Groups come and go far less often than members, so the directory itself
// uses a sync.RWMutex while each roster stays lock-free.
type Directory[C Contact] struct {
	prefix string
	opts   []Option

	mu      sync.RWMutex
	rosters map[int64]*Roster[C]
}

// NewDirectory creates an empty directory. Rosters it creates are named
// prefix + "/" + key and receive opts.
func NewDirectory[C Contact](prefix string, opts ...Option) *Directory[C] {
	return &Directory[C]{
		prefix:  prefix,
		opts:    opts,
		rosters: make(map[int64]*Roster[C]),
	}
}

// Roster returns the roster for key, creating it on first use. Concurrent
// callers for the same key get the same roster.
func (d *Directory[C]) Roster(key int64) *Roster[C] {
	d.mu.RLock()
	r, ok := d.rosters[key]
	d.mu.RUnlock()
	if ok {
		return r
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Double-check after acquiring write lock
	if r, ok := d.rosters[key]; ok {
		return r
	}
	r = New[C](d.prefix+"/"+strconv.FormatInt(key, 10), d.opts...)
	d.rosters[key] = r
	return r
}

// Lookup returns the roster for key without creating it.
func (d *Directory[C]) Lookup(key int64) (*Roster[C], bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.rosters[key]
	return r, ok
}

// View returns a read-only view of the roster for key without creating it.
// On a miss the view is empty and usable.
func (d *Directory[C]) View(key int64) (ContactList[C], bool) {
	r, ok := d.Lookup(key)
	if !ok {
		return NewContactList(&lockfree.List[C]{}), false
	}
	return r.View(), true
}

// Drop removes the roster for key. Views already handed out keep working
// on the dropped roster.
func (d *Directory[C]) Drop(key int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.rosters[key]
	delete(d.rosters, key)
	return ok
}

// Keys returns all keys in ascending order.
func (d *Directory[C]) Keys() []int64 {
	d.mu.RLock()
	keys := make([]int64, 0, len(d.rosters))
	for k := range d.rosters {
		keys = append(keys, k)
	}
	d.mu.RUnlock()

	slices.Sort(keys)
	return keys
}

// Len returns the number of rosters.
func (d *Directory[C]) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rosters)
}

// Range calls fn for each roster in key order until fn returns false.
// It iterates over a snapshot, so fn may call Roster or Drop.
func (d *Directory[C]) Range(fn func(key int64, r *Roster[C]) bool) {
	d.mu.RLock()
	snapshot := make(map[int64]*Roster[C], len(d.rosters))
	for k, r := range d.rosters {
		snapshot[k] = r
	}
	d.mu.RUnlock()

	keys := make([]int64, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		if !fn(k, snapshot[k]) {
			return
		}
	}
}
