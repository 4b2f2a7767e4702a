package crdt

import (
	"encoding/json"
	"fmt"
)

// LWWRegister is a last-writer-wins register: a convergent encoding for the
// non-idempotent mutation "set the value to X". Each write carries a
// timestamp and the writer's replica id; merge keeps the write with the
// greater (timestamp, replica id) pair. As long as each replica issues
// writes with non-decreasing timestamps, the register converges to the
// latest write everywhere.
//
// The timestamp is caller-supplied so that either wall-clock time or a
// causal counter (e.g. a vector clock entry) can drive the ordering.
type LWWRegister[T any] struct {
	value     T
	timestamp int64
	replicaID string
	written   bool
}

// NewLWWRegister creates an unwritten register, the bottom element for
// Merge: any write supersedes it.
func NewLWWRegister[T any]() *LWWRegister[T] {
	return &LWWRegister[T]{}
}

// Set records a write. Writes older than the current state are discarded,
// which makes re-applying a delivered write a no-op.
func (r *LWWRegister[T]) Set(value T, timestamp int64, replicaID string) {
	if wins(timestamp, replicaID, encode(value), r) {
		r.value = value
		r.timestamp = timestamp
		r.replicaID = replicaID
		r.written = true
	}
}

// Value returns the current value and false if the register was never
// written.
func (r *LWWRegister[T]) Value() (T, bool) {
	return r.value, r.written
}

// Timestamp returns the timestamp and replica id of the winning write.
func (r *LWWRegister[T]) Timestamp() (int64, string) {
	return r.timestamp, r.replicaID
}

// Merge keeps whichever side holds the winning write.
func (r *LWWRegister[T]) Merge(other *LWWRegister[T]) {
	if other == nil || !other.written {
		return
	}
	if wins(other.timestamp, other.replicaID, encode(other.value), r) {
		r.value = other.value
		r.timestamp = other.timestamp
		r.replicaID = other.replicaID
		r.written = true
	}
}

// Clone returns an independent copy of the register.
func (r *LWWRegister[T]) Clone() *LWWRegister[T] {
	out := *r
	return &out
}

// Equal reports whether both registers hold the same winning write.
func (r *LWWRegister[T]) Equal(other *LWWRegister[T]) bool {
	if other == nil {
		return !r.written
	}
	if r.written != other.written {
		return false
	}
	return r.timestamp == other.timestamp &&
		r.replicaID == other.replicaID &&
		encode(r.value) == encode(other.value)
}

// wins reports whether a write (ts, replica, encoded value) supersedes the
// register's current state. Ties on timestamp break by replica id, and ties
// on both break by encoded value, so merge stays commutative even if two
// writers collide on a (timestamp, replica) pair.
func wins[T any](ts int64, replicaID, encoded string, r *LWWRegister[T]) bool {
	if !r.written {
		return true
	}
	if ts != r.timestamp {
		return ts > r.timestamp
	}
	if replicaID != r.replicaID {
		return replicaID > r.replicaID
	}
	return encoded > encode(r.value)
}

func encode(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

type lwwJSON[T any] struct {
	Value     T      `json:"value"`
	Timestamp int64  `json:"timestamp"`
	ReplicaID string `json:"replica_id"`
	Written   bool   `json:"written"`
}

// MarshalJSON encodes the winning write.
func (r *LWWRegister[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(lwwJSON[T]{
		Value:     r.value,
		Timestamp: r.timestamp,
		ReplicaID: r.replicaID,
		Written:   r.written,
	})
}

// UnmarshalJSON decodes the representation produced by MarshalJSON.
func (r *LWWRegister[T]) UnmarshalJSON(data []byte) error {
	var raw lwwJSON[T]
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("crdt: invalid lww register: %w", err)
	}
	r.value = raw.Value
	r.timestamp = raw.Timestamp
	r.replicaID = raw.ReplicaID
	r.written = raw.Written
	return nil
}

// MaxRegister is the smallest possible contract implementation: a monotone
// int64 whose merge takes the maximum. Useful as a high-water mark and as
// the canonical example of a custom CRDT.
type MaxRegister struct {
	n int64
}

// NewMaxRegister creates a register at zero, the bottom element for Merge
// over non-negative values.
func NewMaxRegister() *MaxRegister {
	return &MaxRegister{}
}

// Raise lifts the register to v if v is greater; lower values are ignored.
func (m *MaxRegister) Raise(v int64) {
	if v > m.n {
		m.n = v
	}
}

// Value returns the current maximum.
func (m *MaxRegister) Value() int64 {
	return m.n
}

// Merge keeps the greater of the two values.
func (m *MaxRegister) Merge(other *MaxRegister) {
	if other != nil && other.n > m.n {
		m.n = other.n
	}
}

// Clone returns a copy of the register.
func (m *MaxRegister) Clone() *MaxRegister {
	return &MaxRegister{n: m.n}
}

// Equal reports whether both registers hold the same value.
func (m *MaxRegister) Equal(other *MaxRegister) bool {
	if other == nil {
		return m.n == 0
	}
	return m.n == other.n
}

// MarshalJSON encodes the register as its value.
func (m *MaxRegister) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.n)
}

// UnmarshalJSON decodes the representation produced by MarshalJSON.
func (m *MaxRegister) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &m.n); err != nil {
		return fmt.Errorf("crdt: invalid max register: %w", err)
	}
	return nil
}
