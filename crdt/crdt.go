// Package crdt defines the contract every state-based convergent replicated
// data type satisfies, reference implementations of that contract, and a
// composition combinator that derives the contract for compound values from
// their fields.
//
// A CRDT is fully defined by its current state; no operation log is kept.
// Merge must be idempotent, commutative and associative over all reachable
// states. Those three laws are the entire correctness story: replicas that
// exchange and merge state in any order, any number of times, converge. The
// laws are not enforced structurally; the checks package verifies them at
// test time with randomized states.
package crdt

import (
	"encoding/json"
	"fmt"
)

// CRDT is the contract in its statically dispatched form. A concrete type S
// implements CRDT[S] by merging another S into itself, cloning itself, and
// deciding state equality.
//
// Constructors play the role of initialize: every New* function in this
// package returns the bottom element for its type, the identity of Merge.
// Update operations are ordinary methods on each concrete type; each type
// documents how its mutations stay idempotent under merge.
type CRDT[S any] interface {
	// Merge folds other into the receiver. It must be idempotent,
	// commutative and associative, and must not mutate other.
	Merge(other S)

	// Clone returns an independent deep copy of the state.
	Clone() S

	// Equal reports observational state equality.
	Equal(other S) bool
}

// Mergeable is the contract in its dynamically dispatched form, used where
// values of differing CRDT types live together, as in Composite fields.
// Merging or comparing different concrete types is a precondition violation
// reported as ErrTypeMismatch.
type Mergeable interface {
	Merge(other Mergeable) error
	Clone() Mergeable
	Equal(other Mergeable) bool
}

// Dyn lifts a statically typed CRDT state into a Mergeable so it can be
// stored in a Composite. The lifted value shares the given state.
func Dyn[S CRDT[S]](state S) Mergeable {
	return &dyn[S]{state: state}
}

// Unwrap recovers the statically typed state from a value produced by Dyn.
func Unwrap[S CRDT[S]](m Mergeable) (S, error) {
	d, ok := m.(*dyn[S])
	if !ok {
		var zero S
		return zero, fmt.Errorf("%w: have %T", ErrTypeMismatch, m)
	}
	return d.state, nil
}

type dyn[S CRDT[S]] struct {
	state S
}

func (d *dyn[S]) Merge(other Mergeable) error {
	o, ok := other.(*dyn[S])
	if !ok {
		return fmt.Errorf("%w: %T into %T", ErrTypeMismatch, other, d)
	}
	d.state.Merge(o.state)
	return nil
}

func (d *dyn[S]) Clone() Mergeable {
	return &dyn[S]{state: d.state.Clone()}
}

func (d *dyn[S]) Equal(other Mergeable) bool {
	o, ok := other.(*dyn[S])
	if !ok {
		return false
	}
	return d.state.Equal(o.state)
}

func (d *dyn[S]) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.state)
}

func (d *dyn[S]) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, d.state)
}
