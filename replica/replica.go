// Package replica provides identity strategies for participants in a
// replicated system. Identified CRDTs need each writer to present a unique
// id; this package offers two ways to get one without central allocation.
package replica

import (
	"errors"

	"github.com/google/uuid"
	"github.com/statelattice/convergent/causal"
)

// ErrMixedStrategies is returned when replicas using different identity
// strategies are joined.
var ErrMixedStrategies = errors.New("replica: cannot join across identity strategies")

// Replica manages one participant's identity.
//
// Fork splits this replica into two valid, distinct replicas, and Join
// recombines another replica into this one, consuming it. What those mean
// depends on the strategy: random identities mint and discard, interval
// tree identities split and merge actual shares of an id space.
type Replica interface {
	// ID returns the current identifier, usable as a CRDT replica id.
	ID() string

	// Fork derives a second, distinct replica from this one.
	Fork() (Replica, error)

	// Join absorbs another replica of the same strategy, consuming it.
	Join(other Replica) error
}

// Random identifies replicas with freshly generated uuids. Forking mints an
// independent id; joining discards the other id. Simple and collision-free
// for practical purposes, but ids accumulate forever in identified CRDTs.
type Random struct {
	id uuid.UUID
}

// NewRandom creates a replica with a fresh uuid identity.
func NewRandom() *Random {
	return &Random{id: uuid.New()}
}

// ID returns the uuid string.
func (r *Random) ID() string {
	return r.id.String()
}

// Fork mints an independent random replica.
func (r *Random) Fork() (Replica, error) {
	return NewRandom(), nil
}

// Join discards the other replica's identity.
func (r *Random) Join(other Replica) error {
	if _, ok := other.(*Random); !ok {
		return ErrMixedStrategies
	}
	return nil
}

// ITC identifies replicas with interval tree clock stamps. Forking splits
// the identity space, joining recombines it, so the set of live identities
// stays minimal no matter how often membership changes.
type ITC struct {
	stamp *causal.Stamp
}

// NewITC creates the seed replica owning the entire identity space.
func NewITC() *ITC {
	return &ITC{stamp: causal.Seed()}
}

// ID returns the canonical rendering of the identity tree. Unlike a uuid
// this changes when the replica forks or joins.
func (r *ITC) ID() string {
	id, err := r.stamp.ID()
	if err != nil {
		return "(consumed)"
	}
	return id.String()
}

// Stamp exposes the underlying stamp for event recording and causal
// comparison. The stamp remains owned by this replica.
func (r *ITC) Stamp() *causal.Stamp {
	return r.stamp
}

// Event records a local event on this replica's stamp.
func (r *ITC) Event() error {
	return r.stamp.Event()
}

// Fork splits this replica's identity share in two, keeping one half and
// returning the other as a new replica.
func (r *ITC) Fork() (Replica, error) {
	mine, theirs, err := r.stamp.Fork()
	if err != nil {
		return nil, err
	}
	r.stamp = mine
	return &ITC{stamp: theirs}, nil
}

// Join recombines another ITC replica's identity and history into this one,
// consuming it.
func (r *ITC) Join(other Replica) error {
	o, ok := other.(*ITC)
	if !ok {
		return ErrMixedStrategies
	}
	joined, err := causal.Join(r.stamp, o.stamp)
	if err != nil {
		return err
	}
	r.stamp = joined
	return nil
}
