package causal

import (
	"encoding/json"
	"fmt"
)

// IDTree represents a replica's share of the interval tree clock identity
// space, conceptually the unit interval [0,1]. A leaf with Own=false owns
// nothing, a leaf with Own=true owns its whole subtree's interval, and an
// interior node owns the union of its children's shares.
//
// Trees are kept in normal form: an interior node never has two leaf
// children with the same ownership bit (such a node collapses to a single
// leaf). All operations in this package return freshly allocated trees and
// never alias their inputs.
type IDTree struct {
	Own   bool
	Left  *IDTree
	Right *IDTree
}

func zeroID() *IDTree { return &IDTree{} }

func oneID() *IDTree { return &IDTree{Own: true} }

func nodeID(left, right *IDTree) *IDTree {
	return &IDTree{Left: left, Right: right}
}

// IsLeaf reports whether the tree is a single leaf.
func (t *IDTree) IsLeaf() bool {
	return t.Left == nil && t.Right == nil
}

func (t *IDTree) isZero() bool { return t.IsLeaf() && !t.Own }

func (t *IDTree) isOne() bool { return t.IsLeaf() && t.Own }

// Clone returns a deep copy of the tree.
func (t *IDTree) Clone() *IDTree {
	if t.IsLeaf() {
		return &IDTree{Own: t.Own}
	}
	return nodeID(t.Left.Clone(), t.Right.Clone())
}

// Equal reports whether two trees are structurally identical.
func (t *IDTree) Equal(other *IDTree) bool {
	if t.IsLeaf() || other.IsLeaf() {
		return t.IsLeaf() == other.IsLeaf() && t.Own == other.Own
	}
	return t.Left.Equal(other.Left) && t.Right.Equal(other.Right)
}

// norm collapses redundant interior nodes so that ownership is represented
// by the smallest possible tree.
func (t *IDTree) norm() *IDTree {
	if t.IsLeaf() {
		return &IDTree{Own: t.Own}
	}
	left := t.Left.norm()
	right := t.Right.norm()
	if left.IsLeaf() && right.IsLeaf() && left.Own == right.Own {
		return &IDTree{Own: left.Own}
	}
	return nodeID(left, right)
}

// split divides the tree's ownership into two disjoint, non-overlapping
// shares whose union is the original share.
func (t *IDTree) split() (*IDTree, *IDTree) {
	if t.IsLeaf() {
		if !t.Own {
			return zeroID(), zeroID()
		}
		// A full owner splits into the two halves of its interval.
		return nodeID(oneID(), zeroID()), nodeID(zeroID(), oneID())
	}
	if t.Left.isZero() {
		r1, r2 := t.Right.split()
		return nodeID(zeroID(), r1), nodeID(zeroID(), r2)
	}
	if t.Right.isZero() {
		l1, l2 := t.Left.split()
		return nodeID(l1, zeroID()), nodeID(l2, zeroID())
	}
	return nodeID(t.Left.Clone(), zeroID()), nodeID(zeroID(), t.Right.Clone())
}

// overlaps reports whether two identity trees own any common interval.
// Disjointness is the precondition for summing identities during a join.
func overlaps(a, b *IDTree) bool {
	if a.isZero() || b.isZero() {
		return false
	}
	if a.IsLeaf() || b.IsLeaf() {
		// One side fully owns this subtree and the other owns some of it.
		return true
	}
	return overlaps(a.Left, b.Left) || overlaps(a.Right, b.Right)
}

// sumID unions two disjoint identity trees. Callers must have checked
// overlaps first; sumID only sees disjoint shapes.
func sumID(a, b *IDTree) *IDTree {
	if a.isZero() {
		return b.Clone()
	}
	if b.isZero() {
		return a.Clone()
	}
	return nodeID(sumID(a.Left, b.Left), sumID(a.Right, b.Right)).norm()
}

// String renders the tree in the conventional ITC notation, e.g. "(1, 0)".
func (t *IDTree) String() string {
	if t.IsLeaf() {
		if t.Own {
			return "1"
		}
		return "0"
	}
	return fmt.Sprintf("(%s, %s)", t.Left, t.Right)
}

// MarshalJSON encodes a leaf as 0 or 1 and an interior node as a two
// element array [left, right].
func (t *IDTree) MarshalJSON() ([]byte, error) {
	if t.IsLeaf() {
		if t.Own {
			return []byte("1"), nil
		}
		return []byte("0"), nil
	}
	return json.Marshal([2]*IDTree{t.Left, t.Right})
}

// UnmarshalJSON decodes the representation produced by MarshalJSON. Trees
// that arrive in non-normal form (e.g. [0, 0]) are normalized, so every
// decoded tree satisfies the invariants the rest of the package relies on.
func (t *IDTree) UnmarshalJSON(data []byte) error {
	var bit int
	if err := json.Unmarshal(data, &bit); err == nil {
		if bit != 0 && bit != 1 {
			return fmt.Errorf("causal: invalid identity leaf %d", bit)
		}
		t.Own = bit == 1
		t.Left, t.Right = nil, nil
		return nil
	}
	var pair [2]*IDTree
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("causal: invalid identity tree: %w", err)
	}
	if pair[0] == nil || pair[1] == nil {
		return fmt.Errorf("causal: identity node missing a child")
	}
	decoded := nodeID(pair[0], pair[1]).norm()
	t.Own = decoded.Own
	t.Left, t.Right = decoded.Left, decoded.Right
	return nil
}
