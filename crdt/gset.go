package crdt

import (
	"encoding/json"
	"fmt"
)

// GSet is a grow-only set: elements can be added, never removed, and merge
// is set union. Adding an element is naturally idempotent, so GSet needs no
// identity and no deduplication machinery.
type GSet[T comparable] struct {
	elems map[T]struct{}
}

// NewGSet creates an empty set, the bottom element for Merge.
func NewGSet[T comparable]() *GSet[T] {
	return &GSet[T]{elems: make(map[T]struct{})}
}

// Add inserts a value into the set.
func (s *GSet[T]) Add(value T) {
	s.elems[value] = struct{}{}
}

// Contains reports whether the set holds the value.
func (s *GSet[T]) Contains(value T) bool {
	_, ok := s.elems[value]
	return ok
}

// Len returns the number of elements in the set.
func (s *GSet[T]) Len() int {
	return len(s.elems)
}

// Elements returns the set's contents in unspecified order.
func (s *GSet[T]) Elements() []T {
	out := make([]T, 0, len(s.elems))
	for v := range s.elems {
		out = append(out, v)
	}
	return out
}

// Merge unions the other set into this one.
func (s *GSet[T]) Merge(other *GSet[T]) {
	if other == nil {
		return
	}
	for v := range other.elems {
		s.elems[v] = struct{}{}
	}
}

// Clone returns an independent copy of the set.
func (s *GSet[T]) Clone() *GSet[T] {
	out := NewGSet[T]()
	for v := range s.elems {
		out.elems[v] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold exactly the same elements.
func (s *GSet[T]) Equal(other *GSet[T]) bool {
	if other == nil {
		return len(s.elems) == 0
	}
	if len(s.elems) != len(other.elems) {
		return false
	}
	for v := range s.elems {
		if _, ok := other.elems[v]; !ok {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as an array of its elements.
func (s *GSet[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Elements())
}

// UnmarshalJSON decodes an array of elements into the set, replacing its
// contents.
func (s *GSet[T]) UnmarshalJSON(data []byte) error {
	var elems []T
	if err := json.Unmarshal(data, &elems); err != nil {
		return fmt.Errorf("crdt: invalid gset: %w", err)
	}
	s.elems = make(map[T]struct{}, len(elems))
	for _, v := range elems {
		s.elems[v] = struct{}{}
	}
	return nil
}
