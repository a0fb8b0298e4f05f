package action

import (
	"reflect"
	"sort"
)

// Set is the menu of currently legal actions, as computed by the live
// round. Rounds advertise a Set and then independently re-validate any
// submitted action against the same rules, in case of client tampering.
type Set struct {
	actions []Action
}

func NewSet(actions ...Action) *Set {
	s := &Set{}
	s.Add(actions...)
	return s
}

func (s *Set) Add(actions ...Action) {
	s.actions = append(s.actions, actions...)
}

func (s *Set) Actions() []Action {
	return append([]Action(nil), s.actions...)
}

func (s *Set) Empty() bool { return len(s.actions) == 0 }

func (s *Set) Len() int { return len(s.actions) }

// HasKind reports whether the menu offers any action of the given kind.
func (s *Set) HasKind(k Kind) bool {
	for _, a := range s.actions {
		if a.Kind() == k {
			return true
		}
	}
	return false
}

// Kinds returns the distinct kinds on the menu, sorted.
func (s *Set) Kinds() []Kind {
	seen := map[Kind]bool{}
	for _, a := range s.actions {
		seen[a.Kind()] = true
	}
	out := make([]Kind, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Contains reports whether the exact action is on the menu.
func (s *Set) Contains(a Action) bool {
	for _, have := range s.actions {
		if reflect.DeepEqual(have, a) {
			return true
		}
	}
	return false
}

// Equal compares two menus entry for entry.
func (s *Set) Equal(other *Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i := range s.actions {
		if !reflect.DeepEqual(s.actions[i], other.actions[i]) {
			return false
		}
	}
	return true
}
