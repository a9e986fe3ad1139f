package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveWorkersIncrementsCounters(t *testing.T) {
	m := New()
	m.ObserveWorkers(3, 1, 2, 0)

	if got := testutil.ToFloat64(m.WorkerOps); got != 3 {
		t.Fatalf("WorkerOps = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.WorkerFail); got != 2 {
		t.Fatalf("WorkerFail = %v, want 2", got)
	}
}

func TestNewRegistersEveryMetric(t *testing.T) {
	m := New()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(families) != 8 {
		t.Fatalf("registered metric families = %d, want 8", len(families))
	}
}


