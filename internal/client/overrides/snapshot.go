package overrides

import (
	"maps"
	"slices"
)

// Snapshot is an immutable, internally consistent view of the cache.
// The zero value is an empty snapshot.
type Snapshot struct {
	overrides map[string]bool
	pending   map[string]struct{}
}

// Override returns the override for id; ok is false when the caller should
// defer to the remote value.
func (s Snapshot) Override(id string) (value bool, ok bool) {
	value, ok = s.overrides[id]
	return value, ok
}

// IsPending reports whether a remote write for id is still unconfirmed.
func (s Snapshot) IsPending(id string) bool {
	_, ok := s.pending[id]
	return ok
}

// Overrides returns a copy of the override map.
func (s Snapshot) Overrides() map[string]bool {
	out := make(map[string]bool, len(s.overrides))
	maps.Copy(out, s.overrides)
	return out
}

// Pending returns a copy of the pending set.
func (s Snapshot) Pending() map[string]struct{} {
	out := make(map[string]struct{}, len(s.pending))
	maps.Copy(out, s.pending)
	return out
}

// PendingIDs returns the pending ids in sorted order.
func (s Snapshot) PendingIDs() []string {
	return slices.Sorted(maps.Keys(s.pending))
}

func (s Snapshot) withOverride(id string, value bool) *Snapshot {
	o := make(map[string]bool, len(s.overrides)+1)
	maps.Copy(o, s.overrides)
	o[id] = value
	return &Snapshot{overrides: o, pending: s.pending}
}

func (s Snapshot) withoutOverride(id string) *Snapshot {
	o := maps.Clone(s.overrides)
	delete(o, id)
	return &Snapshot{overrides: o, pending: s.pending}
}

func (s Snapshot) withPending(id string) *Snapshot {
	p := make(map[string]struct{}, len(s.pending)+1)
	maps.Copy(p, s.pending)
	p[id] = struct{}{}
	return &Snapshot{overrides: s.overrides, pending: p}
}

func (s Snapshot) withoutPending(id string) *Snapshot {
	p := maps.Clone(s.pending)
	delete(p, id)
	return &Snapshot{overrides: s.overrides, pending: p}
}
