package chunk

import (
	"testing"

	"legion/internal/active"
)

func newTestNetwork(t *testing.T, workerCount uint32) (*active.Registry, *Network) {
	t.Helper()
	reg := active.NewRegistry()
	reg.Register(1, active.Config{
		New: func(id active.ID, chunk uint64) active.Instance {
			return &plainInstance{State: active.State{ID: id, Chunk: chunk}}
		},
	})
	reg.Register(2, active.Config{
		New: func(id active.ID, chunk uint64) active.Instance {
			return &plainInstance{State: active.State{ID: id, Chunk: chunk}}
		},
		Flags: active.FlagStorage,
	})
	n := NewNetwork(reg)
	n.Workers.Count = workerCount
	return reg, n
}

type plainInstance struct{ active.State }

func (p *plainInstance) Header() *active.State { return &p.State }

func TestSingleProducerConsumerMatch(t *testing.T) {
	reg, n := newTestNetwork(t, 4)
	producer, _ := reg.Create(1, 0, 0)
	consumer, _ := reg.Create(1, 0, 0)

	n.Produce(producer, Item(7))
	n.Request(consumer, Item(7))

	n.Step()

	if len(n.Workers.Ops) != 1 {
		t.Fatalf("Ops = %v, want 1 match", n.Workers.Ops)
	}
	op := n.Workers.Ops[0]
	if op.Src != producer || op.Dst != consumer {
		t.Fatalf("op = %+v, want src=%v dst=%v", op, producer, consumer)
	}
	if !n.Consumed(producer) {
		t.Fatalf("producer's Out not cleared after match")
	}
	if got := n.Consume(consumer); got != Item(7) {
		t.Fatalf("Consume(consumer) = %v, want 7", got)
	}
}

func TestUnmatchedConsumerCountsAsFail(t *testing.T) {
	_, n := newTestNetwork(t, 2)
	reg := n.registry
	consumer, _ := reg.Create(1, 0, 0)
	n.Request(consumer, Item(7))

	n.Step()

	if n.Workers.Fail == 0 {
		t.Fatalf("want at least one fail, got %d", n.Workers.Fail)
	}
	if len(n.Workers.Ops) != 0 {
		t.Fatalf("Ops = %v, want none", n.Workers.Ops)
	}
}

func TestStorageToStorageNeverMatches(t *testing.T) {
	_, n := newTestNetwork(t, 4)
	reg := n.registry
	producer, _ := reg.Create(2, 0, 0) // storage type
	consumer, _ := reg.Create(2, 0, 0) // storage type

	n.Produce(producer, Item(9))
	n.Request(consumer, Item(9))

	n.Step()

	if len(n.Workers.Ops) != 0 {
		t.Fatalf("storage->storage matched: %v", n.Workers.Ops)
	}
	if n.Consumed(producer) {
		t.Fatalf("storage producer's Out was cleared despite no valid match")
	}
}

func TestIdleWorkersCountedWhenQueuesExhausted(t *testing.T) {
	_, n := newTestNetwork(t, 10)
	reg := n.registry
	producer, _ := reg.Create(1, 0, 0)
	consumer, _ := reg.Create(1, 0, 0)
	n.Produce(producer, Item(1))
	n.Request(consumer, Item(1))

	n.Step()

	if n.Workers.Idle != 9 {
		t.Fatalf("Idle = %d, want 9 (1 worker did the single match)", n.Workers.Idle)
	}
}

func TestResetRemovesFromQueueAndClearsSlots(t *testing.T) {
	_, n := newTestNetwork(t, 4)
	reg := n.registry
	consumer, _ := reg.Create(1, 0, 0)
	n.Request(consumer, Item(5))

	n.Reset(consumer)
	n.Step()

	if len(n.Workers.Ops) != 0 {
		t.Fatalf("reset consumer still matched: %v", n.Workers.Ops)
	}
	if n.Consume(consumer) != ItemNil {
		t.Fatalf("reset did not clear the in slot")
	}
}

func TestRequestIsIdempotentOnSameItem(t *testing.T) {
	_, n := newTestNetwork(t, 4)
	reg := n.registry
	consumer, _ := reg.Create(1, 0, 0)

	n.Request(consumer, Item(3))
	n.Request(consumer, Item(3))

	if n.requested.len() != 1 {
		t.Fatalf("requested queue len = %d, want 1 (idempotent re-request)", n.requested.len())
	}
}

func TestProduceRejectsWhileOutIsFull(t *testing.T) {
	_, n := newTestNetwork(t, 4)
	reg := n.registry
	producer, _ := reg.Create(1, 0, 0)

	if !n.Produce(producer, Item(1)) {
		t.Fatalf("first Produce failed")
	}
	if n.Produce(producer, Item(2)) {
		t.Fatalf("second Produce succeeded while Out was still full")
	}
}
