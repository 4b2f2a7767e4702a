package causal

import (
	"encoding/json"
	"testing"
)

func TestVectorClockBasicOperations(t *testing.T) {
	vc := NewVectorClock()
	vc.Tick("server1")
	vc.Tick("server1")
	vc.Tick("server2")

	if vc.Get("server1") != 2 {
		t.Errorf("Expected server1 time to be 2, got %d", vc.Get("server1"))
	}
	if vc.Get("server2") != 1 {
		t.Errorf("Expected server2 time to be 1, got %d", vc.Get("server2"))
	}

	str := vc.String()
	if str != "{server1:2,server2:1}" {
		t.Errorf("Unexpected string representation: %s", str)
	}
}

func TestVectorClockComparison(t *testing.T) {
	vc1 := NewVectorClock()
	vc1.Tick("server1")
	vc1.Tick("server2")

	vc2 := NewVectorClock()
	vc2.Tick("server1")

	if vc1.Compare(vc2) != After {
		t.Error("vc1 should happen after vc2")
	}
	if vc2.Compare(vc1) != Before {
		t.Error("vc2 should happen before vc1")
	}

	vc3 := NewVectorClock()
	vc3.Tick("server2")
	vc3.Tick("server3")

	if vc2.Compare(vc3) != Concurrent {
		t.Error("vc2 and vc3 should be concurrent")
	}

	vc4 := NewVectorClock()
	vc4.Tick("server1")

	if vc2.Compare(vc4) != Equal {
		t.Error("vc2 and vc4 should be equal")
	}
}

func TestVectorClockMissingEntriesAreZero(t *testing.T) {
	empty := NewVectorClock()
	explicit := NewVectorClock()
	explicit.Clock["server1"] = 0

	if empty.Compare(explicit) != Equal {
		t.Error("A clock with an explicit zero should equal the empty clock")
	}
	if !empty.Equal(explicit) {
		t.Error("Equal should agree with Compare on explicit zeros")
	}
}

func TestVectorClockMerge(t *testing.T) {
	vc1 := NewVectorClock()
	vc1.Tick("server1")
	vc1.Tick("server1")
	vc1.Tick("server2")

	vc2 := NewVectorClock()
	vc2.Tick("server1")
	vc2.Tick("server3")

	vc1.Merge(vc2)

	if vc1.Get("server1") != 2 {
		t.Errorf("Expected server1 to keep 2 after merge, got %d", vc1.Get("server1"))
	}
	if vc1.Get("server2") != 1 {
		t.Errorf("Expected server2 to keep 1 after merge, got %d", vc1.Get("server2"))
	}
	if vc1.Get("server3") != 1 {
		t.Errorf("Expected server3 to gain 1 after merge, got %d", vc1.Get("server3"))
	}
}

func TestVectorClockCloneIsIndependent(t *testing.T) {
	vc := NewVectorClock()
	vc.Tick("server1")

	clone := vc.Clone()
	clone.Tick("server1")

	if vc.Get("server1") != 1 {
		t.Errorf("Expected original clock to be unaffected, got %d", vc.Get("server1"))
	}
	if clone.Get("server1") != 2 {
		t.Errorf("Expected clone to advance independently, got %d", clone.Get("server1"))
	}
}

func TestVectorClockJSONRoundTrip(t *testing.T) {
	vc := NewVectorClock()
	vc.Tick("server1")
	vc.Tick("server2")
	vc.Tick("server2")

	data, err := json.Marshal(vc)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	decoded := NewVectorClock()
	if err := json.Unmarshal(data, decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !decoded.Equal(vc) {
		t.Errorf("Expected round-tripped clock to equal original: %s vs %s", decoded, vc)
	}
}
