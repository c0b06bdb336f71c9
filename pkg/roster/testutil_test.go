package roster

import (
	"github.com/randalmurphal/roster/pkg/roster/lockfree"
)

// friend is a pointer-identity contact, the common case.
type friend struct {
	uin  int64
	nick string
}

func (f *friend) ID() int64 { return f.uin }

func (f *friend) String() string { return f.nick }

// member is a value contact; equal fields mean equal contacts.
type member struct {
	Group int64
	UIN   int64
}

func (m member) ID() int64 { return m.UIN }

func newFriends(ids ...int64) (*lockfree.List[*friend], []*friend) {
	l := &lockfree.List[*friend]{}
	fs := make([]*friend, 0, len(ids))
	for _, id := range ids {
		f := &friend{uin: id, nick: "f" + string(rune('a'+id%26))}
		l.Add(f)
		fs = append(fs, f)
	}
	return l, fs
}
