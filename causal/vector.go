package causal

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// VectorClock tracks causality with one counter per statically known
// replica. It is the fixed-membership counterpart to the Stamp: where the
// interval tree clock forks identities on demand, a vector clock grows one
// entry per replica id it ever sees.
type VectorClock struct {
	Clock map[string]uint64 `json:"clock"`
}

// NewVectorClock creates an empty vector clock, the bottom element for Merge.
func NewVectorClock() *VectorClock {
	return &VectorClock{Clock: make(map[string]uint64)}
}

// Tick advances the counter for the given replica by one.
func (vc *VectorClock) Tick(replicaID string) {
	vc.Clock[replicaID]++
}

// Get returns the counter recorded for a replica, zero if absent.
func (vc *VectorClock) Get(replicaID string) uint64 {
	return vc.Clock[replicaID]
}

// Merge folds another clock into this one, taking the pointwise maximum.
func (vc *VectorClock) Merge(other *VectorClock) {
	if other == nil {
		return
	}
	for replicaID, t := range other.Clock {
		if t > vc.Clock[replicaID] {
			vc.Clock[replicaID] = t
		}
	}
}

// Compare derives the causal order between two clocks. Missing entries are
// treated as zero, so {} and {a:0} compare Equal.
func (vc *VectorClock) Compare(other *VectorClock) Ordering {
	if other == nil {
		other = NewVectorClock()
	}
	lessOrEqual := true
	greaterOrEqual := true
	for replicaID := range union(vc, other) {
		mine := vc.Get(replicaID)
		theirs := other.Get(replicaID)
		if mine < theirs {
			greaterOrEqual = false
		}
		if mine > theirs {
			lessOrEqual = false
		}
	}
	switch {
	case lessOrEqual && greaterOrEqual:
		return Equal
	case lessOrEqual:
		return Before
	case greaterOrEqual:
		return After
	default:
		return Concurrent
	}
}

// Equal reports whether both clocks record the same counters.
func (vc *VectorClock) Equal(other *VectorClock) bool {
	return vc.Compare(other) == Equal
}

// Clone returns an independent copy of the clock.
func (vc *VectorClock) Clone() *VectorClock {
	out := NewVectorClock()
	for replicaID, t := range vc.Clock {
		out.Clock[replicaID] = t
	}
	return out
}

// Replicas returns the replica ids present in the clock, sorted.
func (vc *VectorClock) Replicas() []string {
	replicas := make([]string, 0, len(vc.Clock))
	for replicaID := range vc.Clock {
		replicas = append(replicas, replicaID)
	}
	sort.Strings(replicas)
	return replicas
}

// String renders the clock as "{a:2,b:1}" with replicas sorted for
// deterministic output.
func (vc *VectorClock) String() string {
	var parts []string
	for _, replicaID := range vc.Replicas() {
		if vc.Clock[replicaID] > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", replicaID, vc.Clock[replicaID]))
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// MarshalJSON serializes the clock.
func (vc *VectorClock) MarshalJSON() ([]byte, error) {
	return json.Marshal(vc.Clock)
}

// UnmarshalJSON deserializes the clock.
func (vc *VectorClock) UnmarshalJSON(data []byte) error {
	clock := make(map[string]uint64)
	if err := json.Unmarshal(data, &clock); err != nil {
		return fmt.Errorf("causal: invalid vector clock: %w", err)
	}
	vc.Clock = clock
	return nil
}

func union(a, b *VectorClock) map[string]struct{} {
	all := make(map[string]struct{}, len(a.Clock)+len(b.Clock))
	for replicaID := range a.Clock {
		all[replicaID] = struct{}{}
	}
	for replicaID := range b.Clock {
		all[replicaID] = struct{}{}
	}
	return all
}
