package lockfree

import "sync/atomic"

// node holds one element. The head sentinel is a node with a zero value.
type node[E any] struct {
	value E
	next  atomic.Pointer[link[E]]
}

// link is the successor of a node plus its removal mark.
// Links are never modified after publication; writers swap them whole.
// A nil *link means "no successor, not removed".
type link[E any] struct {
	next   *node[E]
	marked bool
}

func (k *link[E]) successor() *node[E] {
	if k == nil {
		return nil
	}
	return k.next
}

func (k *link[E]) isMarked() bool {
	return k != nil && k.marked
}

// live reports whether n has not been removed.
func (n *node[E]) live() bool {
	return !n.next.Load().isMarked()
}
