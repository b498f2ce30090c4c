package domain

import (
	"sort"

	"github.com/samber/lo"
)

// Roster is the set of currently connected names. The server gives no
// de-duplication guarantee on presence broadcasts, so membership changes
// are idempotent: Add reports whether the name was actually inserted and
// Remove whether it was actually present.
type Roster struct {
	names map[string]struct{}
}

func NewRoster() *Roster {
	return &Roster{names: make(map[string]struct{})}
}

// Replace resets the roster to exactly the given names, duplicates collapsed.
func (r *Roster) Replace(names []string) {
	r.names = make(map[string]struct{}, len(names))
	for _, name := range lo.Uniq(names) {
		r.names[name] = struct{}{}
	}
}

func (r *Roster) Add(name string) bool {
	if _, ok := r.names[name]; ok {
		return false
	}
	r.names[name] = struct{}{}
	return true
}

func (r *Roster) Remove(name string) bool {
	if _, ok := r.names[name]; !ok {
		return false
	}
	delete(r.names, name)
	return true
}

func (r *Roster) Contains(name string) bool {
	_, ok := r.names[name]
	return ok
}

func (r *Roster) Len() int { return len(r.names) }

func (r *Roster) Clear() {
	r.names = make(map[string]struct{})
}

// Snapshot returns the members sorted, for stable display and assertions.
func (r *Roster) Snapshot() []string {
	all := lo.Keys(r.names)
	sort.Strings(all)
	return all
}
