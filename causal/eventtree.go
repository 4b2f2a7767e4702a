package causal

import (
	"encoding/json"
	"fmt"
)

// EventTree records, per identity subspace, the number of events observed
// there. A leaf carries an absolute count; an interior node carries a base
// count that is added to everything below it.
//
// Trees are kept in normal form: two equal leaf children collapse into their
// parent, and interior children never share a liftable common minimum. As
// with IDTree, every operation returns freshly allocated trees.
type EventTree struct {
	N     uint64
	Left  *EventTree
	Right *EventTree
}

func zeroEvent() *EventTree { return &EventTree{} }

func leafEvent(n uint64) *EventTree { return &EventTree{N: n} }

func nodeEvent(n uint64, left, right *EventTree) *EventTree {
	return &EventTree{N: n, Left: left, Right: right}
}

// IsLeaf reports whether the tree is a single leaf.
func (e *EventTree) IsLeaf() bool {
	return e.Left == nil && e.Right == nil
}

// Clone returns a deep copy of the tree.
func (e *EventTree) Clone() *EventTree {
	if e.IsLeaf() {
		return leafEvent(e.N)
	}
	return nodeEvent(e.N, e.Left.Clone(), e.Right.Clone())
}

// Equal reports whether two trees are structurally identical.
func (e *EventTree) Equal(other *EventTree) bool {
	if e.N != other.N {
		return false
	}
	if e.IsLeaf() || other.IsLeaf() {
		return e.IsLeaf() == other.IsLeaf()
	}
	return e.Left.Equal(other.Left) && e.Right.Equal(other.Right)
}

// min returns the smallest count recorded anywhere in the tree.
func (e *EventTree) min() uint64 {
	if e.IsLeaf() {
		return e.N
	}
	return e.N + minU64(e.Left.min(), e.Right.min())
}

// max returns the largest count recorded anywhere in the tree.
func (e *EventTree) max() uint64 {
	if e.IsLeaf() {
		return e.N
	}
	return e.N + maxU64(e.Left.max(), e.Right.max())
}

// lift returns the tree with m added to its base count.
func (e *EventTree) lift(m uint64) *EventTree {
	out := e.Clone()
	out.N += m
	return out
}

// sink returns the tree with m subtracted from its base count. Callers only
// sink by a value known to be <= the base.
func (e *EventTree) sink(m uint64) *EventTree {
	out := e.Clone()
	out.N -= m
	return out
}

// norm rewrites the tree into normal form without changing the counts it
// denotes.
func (e *EventTree) norm() *EventTree {
	if e.IsLeaf() {
		return leafEvent(e.N)
	}
	left := e.Left.norm()
	right := e.Right.norm()
	if left.IsLeaf() && right.IsLeaf() && left.N == right.N {
		return leafEvent(e.N + left.N)
	}
	m := minU64(left.N, right.N)
	return nodeEvent(e.N+m, left.sink(m), right.sink(m))
}

// Join merges two event histories, taking the pointwise maximum of the
// counts they record. Join is the lattice operation that makes the history
// convergent: it is idempotent, commutative and associative.
func (e *EventTree) Join(other *EventTree) *EventTree {
	switch {
	case e.IsLeaf() && other.IsLeaf():
		return leafEvent(maxU64(e.N, other.N))
	case e.IsLeaf():
		return nodeEvent(e.N, zeroEvent(), zeroEvent()).Join(other)
	case other.IsLeaf():
		return e.Join(nodeEvent(other.N, zeroEvent(), zeroEvent()))
	}
	if e.N > other.N {
		return other.Join(e)
	}
	diff := other.N - e.N
	left := e.Left.Join(other.Left.lift(diff))
	right := e.Right.Join(other.Right.lift(diff))
	return nodeEvent(e.N, left, right).norm()
}

// Compare derives the causal order between two histories: Equal when they
// are pointwise equal, Before/After when one pointwise dominates the other,
// and Concurrent otherwise.
func (e *EventTree) Compare(other *EventTree) Ordering {
	ab := leq(e, 0, other, 0)
	ba := leq(other, 0, e, 0)
	switch {
	case ab && ba:
		return Equal
	case ab:
		return Before
	case ba:
		return After
	default:
		return Concurrent
	}
}

// leq reports whether a, offset by oa, is pointwise <= b offset by ob.
func leq(a *EventTree, oa uint64, b *EventTree, ob uint64) bool {
	av := oa + a.N
	if a.IsLeaf() {
		return av <= ob+b.N
	}
	if b.IsLeaf() {
		return av <= ob+b.N &&
			leq(a.Left, av, b, ob) &&
			leq(a.Right, av, b, ob)
	}
	bv := ob + b.N
	return av <= bv &&
		leq(a.Left, av, b.Left, bv) &&
		leq(a.Right, av, b.Right, bv)
}

// fill inflates the history underneath the fully owned parts of id up to the
// largest count already visible there, simplifying the tree without
// recording new events. It returns the (possibly unchanged) new history.
func (e *EventTree) fill(id *IDTree) *EventTree {
	if id.isZero() {
		return e.Clone()
	}
	if id.isOne() {
		return leafEvent(e.max())
	}
	if e.IsLeaf() {
		return leafEvent(e.N)
	}
	if id.Left.isOne() {
		right := e.Right.fill(id.Right)
		left := leafEvent(maxU64(e.Left.max(), right.min()))
		return nodeEvent(e.N, left, right).norm()
	}
	if id.Right.isOne() {
		left := e.Left.fill(id.Left)
		right := leafEvent(maxU64(e.Right.max(), left.min()))
		return nodeEvent(e.N, left, right).norm()
	}
	return nodeEvent(e.N, e.Left.fill(id.Left), e.Right.fill(id.Right)).norm()
}

// grow records one new event somewhere in the subspace owned by id, growing
// the tree where necessary. The integer result ranks candidate growth
// points so the smallest expansion wins.
func (e *EventTree) grow(id *IDTree) (*EventTree, int) {
	if e.IsLeaf() {
		if id.isOne() {
			return leafEvent(e.N + 1), 0
		}
		grown, cost := nodeEvent(e.N, zeroEvent(), zeroEvent()).grow(id)
		return grown, cost + 1
	}
	if id.IsLeaf() {
		// fill already absorbed every fully owned subtree, so a leaf
		// identity can never reach an interior history node here.
		panic("causal: grow reached an interior history with a leaf identity")
	}
	if id.Left.isZero() {
		right, cost := e.Right.grow(id.Right)
		return nodeEvent(e.N, e.Left.Clone(), right), cost + 1
	}
	if id.Right.isZero() {
		left, cost := e.Left.grow(id.Left)
		return nodeEvent(e.N, left, e.Right.Clone()), cost + 1
	}
	left, costLeft := e.Left.grow(id.Left)
	right, costRight := e.Right.grow(id.Right)
	if costLeft < costRight {
		return nodeEvent(e.N, left, e.Right.Clone()), costLeft + 1
	}
	return nodeEvent(e.N, e.Left.Clone(), right), costRight + 1
}

// String renders the tree in the conventional ITC notation, e.g. "(0, 1, 2)".
func (e *EventTree) String() string {
	if e.IsLeaf() {
		return fmt.Sprintf("%d", e.N)
	}
	return fmt.Sprintf("(%d, %s, %s)", e.N, e.Left, e.Right)
}

// MarshalJSON encodes a leaf as its count and an interior node as a three
// element array [n, left, right].
func (e *EventTree) MarshalJSON() ([]byte, error) {
	if e.IsLeaf() {
		return json.Marshal(e.N)
	}
	return json.Marshal([3]json.RawMessage{
		mustJSON(e.N), mustJSON(e.Left), mustJSON(e.Right),
	})
}

// UnmarshalJSON decodes the representation produced by MarshalJSON. As with
// IDTree, denormal input is normalized on decode; leq and fill assume normal
// form and would misbehave on trees that skipped it.
func (e *EventTree) UnmarshalJSON(data []byte) error {
	var n uint64
	if err := json.Unmarshal(data, &n); err == nil {
		e.N = n
		e.Left, e.Right = nil, nil
		return nil
	}
	var parts [3]json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("causal: invalid event tree: %w", err)
	}
	var base uint64
	if err := json.Unmarshal(parts[0], &base); err != nil {
		return fmt.Errorf("causal: invalid event node count: %w", err)
	}
	left, right := new(EventTree), new(EventTree)
	if err := json.Unmarshal(parts[1], left); err != nil {
		return err
	}
	if err := json.Unmarshal(parts[2], right); err != nil {
		return err
	}
	decoded := nodeEvent(base, left, right).norm()
	e.N = decoded.N
	e.Left, e.Right = decoded.Left, decoded.Right
	return nil
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
