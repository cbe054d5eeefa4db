package registry

import (
	"slices"
	"sync"
)

// Selection is the set of contacts chosen for the next scrape. Only
// contacts whose current status is selectable can be members; members that
// stop being selectable drop out.
type Selection struct {
	mu  sync.Mutex
	reg *Registry
	ids map[int64]struct{}
}

// NewSelection creates an empty selection over reg.
func NewSelection(reg *Registry) *Selection {
	return &Selection{reg: reg, ids: make(map[int64]struct{})}
}

func (s *Selection) selectable(id int64) bool {
	c, ok := s.reg.Get(id)
	return ok && c.Status.Selectable()
}

// Select adds id and reports whether it is now a member.
func (s *Selection) Select(id int64) bool {
	if !s.selectable(id) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
	return true
}

// Deselect removes id.
func (s *Selection) Deselect(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

// Toggle flips membership of id and reports whether it is now a member.
func (s *Selection) Toggle(id int64) bool {
	if s.Contains(id) {
		s.Deselect(id)
		return false
	}
	return s.Select(id)
}

// SelectAll adds every selectable id in ids and returns how many were added.
func (s *Selection) SelectAll(ids []int64) int {
	added := 0
	for _, id := range ids {
		if !s.Contains(id) && s.Select(id) {
			added++
		}
	}
	return added
}

// ClearAll empties the selection.
func (s *Selection) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.ids)
}

// Contains reports whether id is a selectable member.
func (s *Selection) Contains(id int64) bool {
	s.mu.Lock()
	_, ok := s.ids[id]
	s.mu.Unlock()
	return ok && s.selectable(id)
}

// IDs returns the members in ascending order, pruning any whose status is
// no longer selectable.
func (s *Selection) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.ids))
	for id := range s.ids {
		if !s.selectable(id) {
			delete(s.ids, id)
			continue
		}
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of selectable members.
func (s *Selection) Len() int {
	return len(s.IDs())
}
