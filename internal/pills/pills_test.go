package pills

import "testing"

func TestArriveAndDockRoundTrip(t *testing.T) {
	r := NewRegistry()
	if !r.Arrive(Coord(5), Cargo{Item: 1, Count: 10}) {
		t.Fatalf("Arrive failed on empty registry")
	}
	if r.Count() != 1 {
		t.Fatalf("Count = %d, want 1", r.Count())
	}

	res, ok := r.Dock(Coord(5), Item(1))
	if !ok {
		t.Fatalf("Dock did not find the arrived pill")
	}
	if res.Cargo.Count != 10 {
		t.Fatalf("docked cargo count = %d, want 10", res.Cargo.Count)
	}
	if r.Count() != 0 {
		t.Fatalf("Count after dock = %d, want 0", r.Count())
	}
}

func TestDockFiltersByItemAndCoord(t *testing.T) {
	r := NewRegistry()
	r.Arrive(Coord(1), Cargo{Item: 1})
	r.Arrive(Coord(2), Cargo{Item: 2})

	if _, ok := r.Dock(0, Item(3)); ok {
		t.Fatalf("Dock matched a nonexistent item")
	}

	res, ok := r.Dock(0, Item(2))
	if !ok || res.Coord != Coord(2) {
		t.Fatalf("Dock(any, item=2) = %+v, ok=%v, want coord 2", res, ok)
	}
}

func TestArriveRespectsMax(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < Max; i++ {
		if !r.Arrive(Coord(i+1), Cargo{}) {
			t.Fatalf("Arrive failed before reaching Max at i=%d", i)
		}
	}
	if r.Arrive(Coord(9999), Cargo{}) {
		t.Fatalf("Arrive succeeded past Max")
	}
}

func TestArriveReusesFreedSlots(t *testing.T) {
	r := NewRegistry()
	r.Arrive(Coord(1), Cargo{Item: 1})
	r.Dock(Coord(1), Item(1))
	r.Arrive(Coord(2), Cargo{Item: 2})

	if len(r.slots) != 1 {
		t.Fatalf("slots grew to %d, want reuse of the freed slot", len(r.slots))
	}
}
