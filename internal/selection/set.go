// Package selection implements the tri-state location picker: a set of
// checked LocationPaths and the cascade rules that keep it coherent.
package selection

import "jobsearch-engine/internal/domain"

type mark uint8

const (
	// promoted members were added only because a descendant was checked.
	// They drive indicators and never reach the committed filter.
	promoted mark = iota + 1
	// explicit members were checked by the user or by a downward cascade.
	explicit
)

// Set is the working set of checked paths. The zero value is not usable;
// call NewSet.
type Set struct {
	members map[domain.LocationPath]mark
}

func NewSet() *Set {
	return &Set{members: map[domain.LocationPath]mark{}}
}

func (s *Set) Len() int { return len(s.members) }

func (s *Set) Has(p domain.LocationPath) bool {
	_, ok := s.members[p]
	return ok
}

func (s *Set) isExplicit(p domain.LocationPath) bool {
	return s.members[p] == explicit
}

// add is idempotent; an explicit member is never downgraded by add.
func (s *Set) add(p domain.LocationPath, m mark) {
	if cur, ok := s.members[p]; ok && cur >= m {
		return
	}
	s.members[p] = m
}

func (s *Set) demote(p domain.LocationPath) {
	if _, ok := s.members[p]; ok {
		s.members[p] = promoted
	}
}

func (s *Set) remove(p domain.LocationPath) {
	delete(s.members, p)
}

// removeUnder deletes root and every descendant of root.
func (s *Set) removeUnder(root domain.LocationPath) {
	for p := range s.members {
		if root.Contains(p) {
			delete(s.members, p)
		}
	}
}

// anyBelow reports whether a strict descendant of root is present.
func (s *Set) anyBelow(root domain.LocationPath) bool {
	for p := range s.members {
		if p != root && root.Contains(p) {
			return true
		}
	}
	return false
}

func (s *Set) anyUnder(root domain.LocationPath) bool {
	for p := range s.members {
		if root.Contains(p) {
			return true
		}
	}
	return false
}

func (s *Set) clear() {
	s.members = map[domain.LocationPath]mark{}
}
