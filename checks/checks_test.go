package checks_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/statelattice/convergent/causal"
	"github.com/statelattice/convergent/checks"
	"github.com/statelattice/convergent/crdt"
)

var words = []string{"a", "b", "c", "d", "e", "f"}

func genSet(r *rand.Rand) *crdt.GSet[string] {
	s := crdt.NewGSet[string]()
	for i, n := 0, r.Intn(6); i < n; i++ {
		s.Add(words[r.Intn(len(words))])
	}
	return s
}

func genCounter(r *rand.Rand) *crdt.GCounter {
	c := crdt.NewGCounter()
	for i, n := 0, r.Intn(6); i < n; i++ {
		c.Add(words[r.Intn(len(words))], uint64(r.Intn(10)))
	}
	return c
}

func genLWW(r *rand.Rand) *crdt.LWWRegister[string] {
	reg := crdt.NewLWWRegister[string]()
	for i, n := 0, r.Intn(4); i < n; i++ {
		reg.Set(words[r.Intn(len(words))], int64(r.Intn(8)), words[r.Intn(len(words))])
	}
	return reg
}

func genMax(r *rand.Rand) *crdt.MaxRegister {
	m := crdt.NewMaxRegister()
	m.Raise(int64(r.Intn(100)))
	return m
}

func genVector(r *rand.Rand) *causal.VectorClock {
	vc := causal.NewVectorClock()
	for i, n := 0, r.Intn(8); i < n; i++ {
		vc.Tick(words[r.Intn(len(words))])
	}
	return vc
}

func TestGSetLaws(t *testing.T) {
	checks.Run(t, genSet)
}

func TestGCounterLaws(t *testing.T) {
	checks.Run(t, genCounter)
}

func TestLWWRegisterLaws(t *testing.T) {
	checks.Run(t, genLWW)
}

func TestMaxRegisterLaws(t *testing.T) {
	checks.Run(t, genMax)
}

func TestVectorClockLaws(t *testing.T) {
	checks.Run(t, genVector)
}

// history adapts the ITC event history to the statically typed contract so
// the harness can exercise its join.
type history struct {
	tree *causal.EventTree
}

func (h *history) Merge(other *history) {
	h.tree = h.tree.Join(other.tree)
}

func (h *history) Clone() *history {
	return &history{tree: h.tree.Clone()}
}

func (h *history) Equal(other *history) bool {
	return h.tree.Equal(other.tree)
}

func (h *history) String() string {
	return h.tree.String()
}

func genHistory(r *rand.Rand) *history {
	stamps := []*causal.Stamp{causal.Seed()}
	for i, n := 0, r.Intn(8)+1; i < n; i++ {
		j := r.Intn(len(stamps))
		if len(stamps) < 4 && r.Intn(3) == 0 {
			kept, forked, err := stamps[j].Fork()
			if err != nil {
				panic(err)
			}
			stamps[j] = kept
			stamps = append(stamps, forked)
		} else if err := stamps[j].Event(); err != nil {
			panic(err)
		}
	}
	tree, err := stamps[r.Intn(len(stamps))].History()
	if err != nil {
		panic(err)
	}
	return &history{tree: tree}
}

func TestEventHistoryLaws(t *testing.T) {
	checks.Run(t, genHistory)
}

// document adapts a set+counter composite to the statically typed contract,
// verifying that the product construction inherits the laws.
type document struct {
	c *crdt.Composite
}

func newDoc() *document {
	return &document{c: crdt.NewComposite().
		With("tags", crdt.Dyn(crdt.NewGSet[string]())).
		With("visits", crdt.Dyn(crdt.NewGCounter()))}
}

func (d *document) Merge(other *document) {
	if err := d.c.Merge(other.c); err != nil {
		panic(err)
	}
}

func (d *document) Clone() *document {
	return &document{c: d.c.Clone().(*crdt.Composite)}
}

func (d *document) Equal(other *document) bool {
	return d.c.Equal(other.c)
}

func genDoc(r *rand.Rand) *document {
	d := newDoc()
	set, err := crdt.Get[*crdt.GSet[string]](d.c, "tags")
	if err != nil {
		panic(err)
	}
	set.Merge(genSet(r))
	counter, err := crdt.Get[*crdt.GCounter](d.c, "visits")
	if err != nil {
		panic(err)
	}
	counter.Merge(genCounter(r))
	return d
}

func TestCompositeLaws(t *testing.T) {
	checks.Run(t, genDoc)
}

func TestBottomIdentity(t *testing.T) {
	if cx := checks.BottomIdentity(crdt.NewGCounter, genCounter, checks.Config{}); cx != nil {
		t.Fatal(cx.String())
	}
	if cx := checks.BottomIdentity(crdt.NewGSet[string], genSet, checks.Config{}); cx != nil {
		t.Fatal(cx.String())
	}
}

// sticky keeps the first value it ever sees, which is merge-order dependent:
// the harness must catch it.
type sticky struct {
	v int64
}

func (s *sticky) Merge(other *sticky) {
	if s.v == 0 {
		s.v = other.v
	}
}

func (s *sticky) Clone() *sticky { return &sticky{v: s.v} }

func (s *sticky) Equal(other *sticky) bool { return s.v == other.v }

func TestHarnessCatchesNonCommutativeMerge(t *testing.T) {
	gen := func(r *rand.Rand) *sticky {
		return &sticky{v: int64(r.Intn(1000)) + 1}
	}
	cx := checks.Commutativity(gen, checks.Config{})
	if cx == nil {
		t.Fatal("Expected a counterexample for an order-dependent merge")
	}
	if !strings.Contains(cx.Property, "commutativity") {
		t.Errorf("Expected a commutativity counterexample, got %s", cx.Property)
	}
	if len(cx.Inputs) != 2 {
		t.Errorf("Expected the two violating inputs, got %d", len(cx.Inputs))
	}
}

func TestChecksAreDeterministic(t *testing.T) {
	gen := func(r *rand.Rand) *sticky {
		return &sticky{v: int64(r.Intn(1000)) + 1}
	}
	first := checks.Commutativity(gen, checks.Config{Seed: 7})
	second := checks.Commutativity(gen, checks.Config{Seed: 7})
	if first == nil || second == nil {
		t.Fatal("Expected counterexamples from both runs")
	}
	if first.Left != second.Left || first.Right != second.Right {
		t.Error("Expected identical seeds to reproduce the same counterexample")
	}
}
