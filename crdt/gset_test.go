package crdt

import (
	"encoding/json"
	"testing"
)

func TestGSetAddAndContains(t *testing.T) {
	s := NewGSet[string]()
	s.Add("a")
	s.Add("b")
	s.Add("a")

	if !s.Contains("a") || !s.Contains("b") {
		t.Error("Expected set to contain added elements")
	}
	if s.Contains("c") {
		t.Error("Expected set not to contain absent element")
	}
	if s.Len() != 2 {
		t.Errorf("Expected 2 elements, got %d", s.Len())
	}
}

func TestGSetMergeIsUnion(t *testing.T) {
	a := NewGSet[string]()
	a.Add("a")
	b := NewGSet[string]()
	b.Add("b")

	a.Merge(b)

	if a.Len() != 2 || !a.Contains("a") || !a.Contains("b") {
		t.Errorf("Expected union {a b}, got %v", a.Elements())
	}
	// Merging must not mutate the other side.
	if b.Len() != 1 {
		t.Errorf("Expected other side untouched, got %v", b.Elements())
	}
}

func TestGSetMergeBottomIsIdentity(t *testing.T) {
	a := NewGSet[int]()
	a.Add(1)
	a.Add(2)

	before := a.Clone()
	a.Merge(NewGSet[int]())

	if !a.Equal(before) {
		t.Errorf("Expected merging bottom to change nothing, got %v", a.Elements())
	}
}

func TestGSetJSONRoundTrip(t *testing.T) {
	s := NewGSet[string]()
	s.Add("x")
	s.Add("y")

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	decoded := NewGSet[string]()
	if err := json.Unmarshal(data, decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !decoded.Equal(s) {
		t.Errorf("Expected round-tripped set to equal original, got %v", decoded.Elements())
	}
}
