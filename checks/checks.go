// Package checks is the convergence verification harness. It exercises the
// three CRDT laws, idempotence, commutativity and associativity, against
// randomly generated reachable states, and reports the first violating
// input pair as a counterexample.
//
// The contract cannot be verified structurally; a concrete type with a
// subtly order-dependent merge compiles fine and corrupts data later. The
// harness is how such defects surface: give it a generator that builds
// states through random sequences of the type's own update operations, and
// any merge-order dependence shows up as two divergent merge results.
package checks

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/statelattice/convergent/crdt"
)

// Generator produces an arbitrary reachable state from a seeded source of
// randomness. Generators should construct states the way applications do:
// start from the type's bottom element and apply a random sequence of its
// update operations.
type Generator[S any] func(r *rand.Rand) S

// Config controls a property run. The zero value uses the defaults, which
// are deterministic so failures reproduce.
type Config struct {
	Trials int
	Seed   int64
}

const (
	defaultTrials = 100
	defaultSeed   = 0x5eed
)

func (c Config) withDefaults() Config {
	if c.Trials <= 0 {
		c.Trials = defaultTrials
	}
	if c.Seed == 0 {
		c.Seed = defaultSeed
	}
	return c
}

// Counterexample describes a property violation: the generated inputs and
// the two results that should have been equal but were not.
type Counterexample struct {
	Property string
	Inputs   []string
	Left     string
	Right    string
}

// String renders the counterexample for a test failure message.
func (cx *Counterexample) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s violated\n", cx.Property)
	for i, in := range cx.Inputs {
		fmt.Fprintf(&b, "  input %c: %s\n", 'A'+i, in)
	}
	fmt.Fprintf(&b, "  left:  %s\n", cx.Left)
	fmt.Fprintf(&b, "  right: %s", cx.Right)
	return b.String()
}

// Idempotence checks merge(A, A) = A over generated states.
func Idempotence[S crdt.CRDT[S]](gen Generator[S], cfg Config) *Counterexample {
	cfg = cfg.withDefaults()
	r := rand.New(rand.NewSource(cfg.Seed))
	for i := 0; i < cfg.Trials; i++ {
		a := gen(r)
		aa := a.Clone()
		aa.Merge(a)
		if !aa.Equal(a) {
			return &Counterexample{
				Property: "idempotence (A + A = A)",
				Inputs:   []string{render(a)},
				Left:     render(aa),
				Right:    render(a),
			}
		}
	}
	return nil
}

// Commutativity checks merge(A, B) = merge(B, A) over generated states.
func Commutativity[S crdt.CRDT[S]](gen Generator[S], cfg Config) *Counterexample {
	cfg = cfg.withDefaults()
	r := rand.New(rand.NewSource(cfg.Seed))
	for i := 0; i < cfg.Trials; i++ {
		a, b := gen(r), gen(r)
		ab := a.Clone()
		ab.Merge(b)
		ba := b.Clone()
		ba.Merge(a)
		if !ab.Equal(ba) {
			return &Counterexample{
				Property: "commutativity (A + B = B + A)",
				Inputs:   []string{render(a), render(b)},
				Left:     render(ab),
				Right:    render(ba),
			}
		}
	}
	return nil
}

// Associativity checks merge(merge(A, B), C) = merge(A, merge(B, C)) over
// generated states.
func Associativity[S crdt.CRDT[S]](gen Generator[S], cfg Config) *Counterexample {
	cfg = cfg.withDefaults()
	r := rand.New(rand.NewSource(cfg.Seed))
	for i := 0; i < cfg.Trials; i++ {
		a, b, c := gen(r), gen(r), gen(r)
		abc := a.Clone()
		abc.Merge(b)
		abc.Merge(c)
		bc := b.Clone()
		bc.Merge(c)
		aBC := a.Clone()
		aBC.Merge(bc)
		if !abc.Equal(aBC) {
			return &Counterexample{
				Property: "associativity ((A + B) + C = A + (B + C))",
				Inputs:   []string{render(a), render(b), render(c)},
				Left:     render(abc),
				Right:    render(aBC),
			}
		}
	}
	return nil
}

// BottomIdentity checks that merging a freshly initialized (bottom) state
// into any state A, in either order, yields a state equal to A.
func BottomIdentity[S crdt.CRDT[S]](bottom func() S, gen Generator[S], cfg Config) *Counterexample {
	cfg = cfg.withDefaults()
	r := rand.New(rand.NewSource(cfg.Seed))
	for i := 0; i < cfg.Trials; i++ {
		a := gen(r)
		left := a.Clone()
		left.Merge(bottom())
		right := bottom()
		right.Merge(a)
		if !left.Equal(a) || !right.Equal(a) {
			return &Counterexample{
				Property: "bottom identity (A + 0 = 0 + A = A)",
				Inputs:   []string{render(a)},
				Left:     render(left),
				Right:    render(right),
			}
		}
	}
	return nil
}

// Convergent runs the three law checks and returns the first violation.
func Convergent[S crdt.CRDT[S]](gen Generator[S], cfg Config) *Counterexample {
	if cx := Idempotence(gen, cfg); cx != nil {
		return cx
	}
	if cx := Commutativity(gen, cfg); cx != nil {
		return cx
	}
	return Associativity(gen, cfg)
}

// Run is the testing adapter: it runs Convergent with defaults and fails
// the test with the counterexample if a law is violated.
func Run[S crdt.CRDT[S]](t *testing.T, gen Generator[S]) {
	t.Helper()
	if cx := Convergent(gen, Config{}); cx != nil {
		t.Fatal(cx.String())
	}
}

func render(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%+v", v)
}
