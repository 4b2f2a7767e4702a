package replica

import (
	"errors"
	"testing"

	"github.com/statelattice/convergent/causal"
)

func TestRandomForkMintsDistinctIDs(t *testing.T) {
	r := NewRandom()
	forked, err := r.Fork()
	if err != nil {
		t.Fatalf("fork failed: %v", err)
	}
	if r.ID() == forked.ID() {
		t.Error("Expected forked random replicas to have distinct ids")
	}
}

func TestRandomJoinIsDiscard(t *testing.T) {
	r := NewRandom()
	id := r.ID()
	other := NewRandom()

	if err := r.Join(other); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if r.ID() != id {
		t.Error("Expected join to keep the receiver's id")
	}
}

func TestITCForkSplitsIdentitySpace(t *testing.T) {
	r := NewITC()
	if r.ID() != "1" {
		t.Errorf("Expected seed replica to own everything, got %s", r.ID())
	}

	forked, err := r.Fork()
	if err != nil {
		t.Fatalf("fork failed: %v", err)
	}
	if r.ID() != "(1, 0)" {
		t.Errorf("Expected left half after fork, got %s", r.ID())
	}
	if forked.ID() != "(0, 1)" {
		t.Errorf("Expected right half after fork, got %s", forked.ID())
	}
}

func TestITCJoinRecombines(t *testing.T) {
	r := NewITC()
	forked, err := r.Fork()
	if err != nil {
		t.Fatalf("fork failed: %v", err)
	}

	if err := r.Event(); err != nil {
		t.Fatalf("event failed: %v", err)
	}
	if err := r.Join(forked); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if r.ID() != "1" {
		t.Errorf("Expected identity space to recombine, got %s", r.ID())
	}
}

func TestITCEventsDriveCausalOrder(t *testing.T) {
	r := NewITC()
	forked, err := r.Fork()
	if err != nil {
		t.Fatalf("fork failed: %v", err)
	}
	peer := forked.(*ITC)

	if err := r.Event(); err != nil {
		t.Fatalf("event failed: %v", err)
	}
	ord, err := r.Stamp().Compare(peer.Stamp())
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if ord != causal.After {
		t.Errorf("Expected advanced replica to compare after, got %s", ord)
	}
}

func TestJoinAcrossStrategiesFails(t *testing.T) {
	if err := NewITC().Join(NewRandom()); !errors.Is(err, ErrMixedStrategies) {
		t.Errorf("Expected ErrMixedStrategies, got %v", err)
	}
	if err := NewRandom().Join(NewITC()); !errors.Is(err, ErrMixedStrategies) {
		t.Errorf("Expected ErrMixedStrategies, got %v", err)
	}
}
