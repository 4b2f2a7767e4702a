package causal

// Ordering is the result of a causal comparison between two event histories.
//
// Unlike wall-clock time, causal time is a partial order: two histories that
// each recorded events the other has not seen are Concurrent, not ordered.
type Ordering int

const (
	// Before means the left history happened strictly before the right one.
	Before Ordering = iota
	// After means the left history happened strictly after the right one.
	After
	// Equal means both histories recorded exactly the same events.
	Equal
	// Concurrent means neither history dominates the other.
	Concurrent
)

// String returns a human-readable name for the ordering.
func (o Ordering) String() string {
	switch o {
	case Before:
		return "before"
	case After:
		return "after"
	case Equal:
		return "equal"
	case Concurrent:
		return "concurrent"
	default:
		return "unknown"
	}
}
