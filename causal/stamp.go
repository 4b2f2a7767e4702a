package causal

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrConsumed is returned when a stamp is used after Fork or Join has
	// transferred its ownership to fresh output stamps.
	ErrConsumed = errors.New("causal: stamp already consumed by fork or join")

	// ErrNoOwnership is returned when Event is called on a stamp whose
	// identity owns no share of the id space. A replica may not advance
	// history it does not own.
	ErrNoOwnership = errors.New("causal: identity owns no share of the id space")

	// ErrOverlappingIdentity is returned when Join is given two stamps
	// whose identities claim a common interval. Overlapping shares cannot
	// come from forks of a common lineage, so the join is rejected rather
	// than guessed at.
	ErrOverlappingIdentity = errors.New("causal: identities overlap, not fork siblings")
)

// Stamp pairs an identity share with an event history. One logical replica
// owns a stamp at a time; Fork and Join consume their inputs and hand
// ownership to their outputs. A consumed stamp fails every later operation
// with ErrConsumed.
type Stamp struct {
	id      *IDTree
	history *EventTree
}

// Seed returns the initial stamp: full ownership of the id space and an
// empty event history. A system has exactly one seed; every other identity
// descends from it by forking.
func Seed() *Stamp {
	return &Stamp{id: oneID(), history: zeroEvent()}
}

// consumed reports whether ownership has been transferred away.
func (s *Stamp) consumed() bool {
	return s.id == nil
}

// invalidate strips the stamp so accidental reuse is caught.
func (s *Stamp) invalidate() {
	s.id = nil
	s.history = nil
}

// ID returns a copy of the stamp's identity tree.
func (s *Stamp) ID() (*IDTree, error) {
	if s.consumed() {
		return nil, ErrConsumed
	}
	return s.id.Clone(), nil
}

// History returns a copy of the stamp's event history.
func (s *Stamp) History() (*EventTree, error) {
	if s.consumed() {
		return nil, ErrConsumed
	}
	return s.history.Clone(), nil
}

// Fork splits the stamp's identity into two disjoint shares. Both outputs
// carry a copy of the input's history, so immediately after a fork the two
// siblings compare Equal; they diverge as soon as either records an event.
// The input is consumed.
func (s *Stamp) Fork() (*Stamp, *Stamp, error) {
	if s.consumed() {
		return nil, nil, ErrConsumed
	}
	left, right := s.id.split()
	a := &Stamp{id: left, history: s.history.Clone()}
	b := &Stamp{id: right, history: s.history.Clone()}
	s.invalidate()
	return a, b, nil
}

// Event records one new event in the subspace this stamp owns, strictly
// increasing the history there. It first tries to inflate existing counters
// (fill); only when that changes nothing does it grow the tree, choosing the
// cheapest growth point.
func (s *Stamp) Event() error {
	if s.consumed() {
		return ErrConsumed
	}
	if s.id.isZero() {
		return ErrNoOwnership
	}
	filled := s.history.fill(s.id)
	if !filled.Equal(s.history) {
		s.history = filled
		return nil
	}
	grown, _ := s.history.grow(s.id)
	s.history = grown
	return nil
}

// Join recombines two stamps that descend from a common lineage of forks.
// The result owns the union of both identities and a history that is the
// pointwise maximum of both inputs'. Both inputs are consumed. Joining
// stamps with overlapping identities fails with ErrOverlappingIdentity.
func Join(a, b *Stamp) (*Stamp, error) {
	if a.consumed() || b.consumed() {
		return nil, ErrConsumed
	}
	if overlaps(a.id, b.id) {
		return nil, ErrOverlappingIdentity
	}
	joined := &Stamp{
		id:      sumID(a.id, b.id),
		history: a.history.Join(b.history),
	}
	a.invalidate()
	b.invalidate()
	return joined, nil
}

// Compare derives the causal order of the two stamps' event histories.
// Identity trees carry no causal information and are ignored.
func (s *Stamp) Compare(other *Stamp) (Ordering, error) {
	if s.consumed() || other.consumed() {
		return Concurrent, ErrConsumed
	}
	return s.history.Compare(other.history), nil
}

// Equal reports whether both stamps hold the same identity and history.
func (s *Stamp) Equal(other *Stamp) bool {
	if s.consumed() || other.consumed() {
		return s.consumed() == other.consumed()
	}
	return s.id.Equal(other.id) && s.history.Equal(other.history)
}

// Clone returns an independent copy of the stamp. The copy is intended for
// serialization and inspection; treating it as a second live replica breaks
// the single-owner discipline the identity space depends on.
func (s *Stamp) Clone() *Stamp {
	if s.consumed() {
		return &Stamp{}
	}
	return &Stamp{id: s.id.Clone(), history: s.history.Clone()}
}

// String renders the stamp as "(id; history)".
func (s *Stamp) String() string {
	if s.consumed() {
		return "(consumed)"
	}
	return fmt.Sprintf("(%s; %s)", s.id, s.history)
}

type stampJSON struct {
	ID      *IDTree    `json:"id"`
	History *EventTree `json:"history"`
}

// MarshalJSON encodes the stamp's identity and history trees.
func (s *Stamp) MarshalJSON() ([]byte, error) {
	if s.consumed() {
		return nil, ErrConsumed
	}
	return json.Marshal(stampJSON{ID: s.id, History: s.history})
}

// UnmarshalJSON decodes the representation produced by MarshalJSON.
func (s *Stamp) UnmarshalJSON(data []byte) error {
	var raw stampJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("causal: invalid stamp: %w", err)
	}
	if raw.ID == nil || raw.History == nil {
		return fmt.Errorf("causal: stamp missing id or history")
	}
	s.id = raw.ID
	s.history = raw.History
	return nil
}
