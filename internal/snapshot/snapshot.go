// Package snapshot models the set of applications observed at one sampling
// instant and the sources that produce it.
package snapshot

import (
	"context"
	"sort"
)

// Snapshot is an immutable set of application names. Names are kept exactly
// as reported (no case folding or path trimming) and iterate in ascending
// byte order, so two equal snapshots always produce the same log rows.
type Snapshot struct {
	names []string
}

// New builds a snapshot from names. Duplicates collapse to one member.
func New(names ...string) Snapshot {
	if len(names) == 0 {
		return Snapshot{}
	}
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	out := sorted[:1]
	for _, n := range sorted[1:] {
		if n != out[len(out)-1] {
			out = append(out, n)
		}
	}
	return Snapshot{names: out}
}

// Names returns a copy of the members in iteration order.
func (s Snapshot) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of distinct names.
func (s Snapshot) Len() int { return len(s.names) }

// IsEmpty reports whether the snapshot has no members.
func (s Snapshot) IsEmpty() bool { return len(s.names) == 0 }

// Contains reports whether name is a member.
func (s Snapshot) Contains(name string) bool {
	i := sort.SearchStrings(s.names, name)
	return i < len(s.names) && s.names[i] == name
}

// Equal reports set equality.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s.names) != len(other.names) {
		return false
	}
	for i := range s.names {
		if s.names[i] != other.names[i] {
			return false
		}
	}
	return true
}

// Source returns the applications currently active on the host.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}
