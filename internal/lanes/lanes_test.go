package lanes

import "testing"

func TestLaunchAndStepDeliversInTickOrder(t *testing.T) {
	ls := New()
	ls.Launch(1, 2, 0, 5, Payload{Owner: 1, Item: 10})
	ls.Launch(1, 2, 0, 2, Payload{Owner: 2, Item: 20})

	arrivals := ls.Step(3)
	if len(arrivals) != 1 {
		t.Fatalf("arrivals at tick 3 = %v, want 1 (only the tick-2 payload)", arrivals)
	}
	if arrivals[0].Payload.Item != 20 {
		t.Fatalf("delivered item = %v, want 20 (earlier arrival)", arrivals[0].Payload.Item)
	}

	arrivals = ls.Step(5)
	if len(arrivals) != 1 || arrivals[0].Payload.Item != 10 {
		t.Fatalf("second delivery = %v, want item 10", arrivals)
	}
}

func TestLaneSharedByBothDirections(t *testing.T) {
	ls := New()
	ls.Launch(1, 2, 0, 1, Payload{Item: 1})
	ls.Launch(2, 1, 0, 1, Payload{Item: 2})

	if len(ls.byKey) != 1 {
		t.Fatalf("byKey has %d lanes, want 1 shared lane for both directions", len(ls.byKey))
	}

	arrivals := ls.Step(1)
	if len(arrivals) != 2 {
		t.Fatalf("arrivals = %v, want 2", arrivals)
	}
	for _, a := range arrivals {
		if a.Payload.Item == 1 && (a.Src != 1 || a.Dst != 2) {
			t.Fatalf("forward payload arrived with wrong src/dst: %+v", a)
		}
		if a.Payload.Item == 2 && (a.Src != 2 || a.Dst != 1) {
			t.Fatalf("reverse payload arrived with wrong src/dst: %+v", a)
		}
	}
}

func TestEmptyLaneIsFreedAndUnindexed(t *testing.T) {
	ls := New()
	ls.Launch(1, 2, 0, 1, Payload{Item: 1})
	ls.Step(1)

	if len(ls.byKey) != 0 {
		t.Fatalf("lane not freed after draining: %d remain", len(ls.byKey))
	}
	if n := ls.Neighbors(1); len(n) != 0 {
		t.Fatalf("Neighbors(1) = %v, want none after lane freed", n)
	}
}

func TestNeighborsReflectsActiveLanes(t *testing.T) {
	ls := New()
	ls.Launch(1, 2, 0, 100, Payload{Item: 1})
	ls.Launch(1, 3, 0, 100, Payload{Item: 1})

	neighbors := ls.Neighbors(1)
	if len(neighbors) != 2 {
		t.Fatalf("Neighbors(1) = %v, want 2", neighbors)
	}
}

func TestHeapOrdersByArrivalAcrossManyPushes(t *testing.T) {
	l := newLane(1, 2)
	order := []Tick{50, 10, 40, 20, 30}
	for _, ts := range order {
		l.push(ts, Payload{Item: Item(ts)})
	}

	var got []Tick
	for len(l.heap) > 0 {
		ts, _ := l.peek()
		got = append(got, ts)
		l.pop()
	}

	want := []Tick{10, 20, 30, 40, 50}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pop order = %v, want %v", got, want)
		}
	}
}

func TestSnapshotRestoreRoundTripsInFlightPayloads(t *testing.T) {
	ls := New()
	ls.Launch(1, 2, 0, 5, Payload{Owner: 7, Kind: KindPill, Item: 3, Data: []uint64{1, 2}})
	ls.Launch(2, 1, 0, 9, Payload{Owner: 8, Kind: KindData, Item: 4})

	entries := ls.Snapshot()
	if len(entries) != 2 {
		t.Fatalf("Snapshot = %d entries, want 2", len(entries))
	}

	restored := Restore(entries)
	arrivals := restored.Step(100)
	if len(arrivals) != 2 {
		t.Fatalf("restored lanes delivered %d arrivals, want 2", len(arrivals))
	}

	var sawPill, sawData bool
	for _, a := range arrivals {
		switch a.Payload.Kind {
		case KindPill:
			sawPill = a.Src == 1 && a.Dst == 2 && a.Payload.Owner == 7 && len(a.Payload.Data) == 2
		case KindData:
			sawData = a.Src == 2 && a.Dst == 1 && a.Payload.Owner == 8
		}
	}
	if !sawPill || !sawData {
		t.Fatalf("restored arrivals missing expected payloads: %+v", arrivals)
	}
}

func TestTravelZeroSpeedDoesNotDivideByZero(t *testing.T) {
	if got := Travel(100, 0); got != 100 {
		t.Fatalf("Travel(100, 0) = %d, want 100 (speed floors to 1)", got)
	}
}
