package crdt

import (
	"encoding/json"
	"fmt"
)

// GCounter is a grow-only counter: one monotonically increasing count per
// replica id, with the visible value being the sum over all replicas. Merge
// takes the pointwise maximum per replica, so replaying the same merged
// state never double-counts. The replica id passed to Inc and Add must be
// the caller's own; writing to another replica's entry breaks monotonicity.
type GCounter struct {
	counts map[string]uint64
	total  uint64
}

// NewGCounter creates a zero counter, the bottom element for Merge.
func NewGCounter() *GCounter {
	return &GCounter{counts: make(map[string]uint64)}
}

// Inc increments the calling replica's entry by one.
func (c *GCounter) Inc(replicaID string) {
	c.Add(replicaID, 1)
}

// Add increments the calling replica's entry by n.
func (c *GCounter) Add(replicaID string, n uint64) {
	c.counts[replicaID] += n
	c.total += n
}

// IncDelta increments the calling replica's entry and returns the minimal
// delta state to ship to peers: a counter holding only this replica's new
// count. Merging the delta anywhere has the same effect as merging the full
// state.
func (c *GCounter) IncDelta(replicaID string) *GCounter {
	c.Inc(replicaID)
	delta := NewGCounter()
	delta.counts[replicaID] = c.counts[replicaID]
	delta.total = c.counts[replicaID]
	return delta
}

// Value returns the counter's visible total, the sum of all replica counts.
func (c *GCounter) Value() uint64 {
	return c.total
}

// Get returns the count recorded for a replica, zero if absent.
func (c *GCounter) Get(replicaID string) uint64 {
	return c.counts[replicaID]
}

// Merge folds the other counter in, taking the pointwise maximum per
// replica id and recomputing the cached total when anything changed.
func (c *GCounter) Merge(other *GCounter) {
	if other == nil {
		return
	}
	changed := false
	for replicaID, theirs := range other.counts {
		if theirs > c.counts[replicaID] {
			c.counts[replicaID] = theirs
			changed = true
		}
	}
	if changed {
		c.total = 0
		for _, n := range c.counts {
			c.total += n
		}
	}
}

// Clone returns an independent copy of the counter.
func (c *GCounter) Clone() *GCounter {
	out := NewGCounter()
	for replicaID, n := range c.counts {
		out.counts[replicaID] = n
	}
	out.total = c.total
	return out
}

// Equal reports whether both counters record the same per-replica counts.
// Missing entries are treated as zero.
func (c *GCounter) Equal(other *GCounter) bool {
	if other == nil {
		return c.total == 0
	}
	for replicaID, n := range c.counts {
		if other.counts[replicaID] != n {
			return false
		}
	}
	for replicaID, n := range other.counts {
		if c.counts[replicaID] != n {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the per-replica counts; the total is derived.
func (c *GCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.counts)
}

// UnmarshalJSON decodes per-replica counts, replacing the counter's state
// and recomputing the total.
func (c *GCounter) UnmarshalJSON(data []byte) error {
	counts := make(map[string]uint64)
	if err := json.Unmarshal(data, &counts); err != nil {
		return fmt.Errorf("crdt: invalid gcounter: %w", err)
	}
	c.counts = counts
	c.total = 0
	for _, n := range counts {
		c.total += n
	}
	return nil
}
