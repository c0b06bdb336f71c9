/*
Package lockfree provides a lock-free, insertion-ordered linked list that many
goroutines can traverse while others append and remove.

# Basic Usage

The zero List is empty and ready to use:

	var l lockfree.List[*Friend]
	l.Add(alice)
	l.Add(bob)

	l.ForEach(func(f *Friend) bool {
	    fmt.Println(f.Nick)
	    return true // keep going
	})

	removed := l.Remove(alice)

# Algorithm

Every node points at an immutable link holding its successor and a removal
mark. Writers replace whole links with compare-and-swap, so the successor and
the mark always change together:

  - Add walks to the last live node and swaps its link for one pointing at the
    new node. A tail hint skips the walk when the hinted node is still live.
  - Remove marks the node's own link first. That CAS is the moment the element
    leaves the list. The node is then unlinked from its predecessor on a best
    effort basis; any later writer that walks past a marked node unlinks it.

A writer that loses a CAS re-reads the list and retries. Some writer always
wins, so the list is lock-free but not wait-free.

# Traversal

ForEach and All never write. They visit each node that is unmarked at the
moment they reach it, following links forward only, so no element is seen
twice in one traversal. Elements appended after a traversal started may or may
not be seen. An element removed while a traversal is visiting it is finished
normally and not revisited.

# Reclamation

Removed nodes are reclaimed by the garbage collector once no traversal holds a
pointer to them. A reader can therefore never touch freed memory, and marked
links keep their successor so a reader parked on a removed node can still walk
forward.

# Thread Safety

All List methods are safe for concurrent use. Len is an atomic counter and may
briefly disagree with a traversal running at the same time.
*/
package lockfree
