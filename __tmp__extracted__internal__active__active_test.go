package active

import "testing"

type minerState struct {
	State
	ticks int
	loadedFrom []uint64
}

func (m *minerState) Header() *State { return &m.State }
func (m *minerState) Step(chunk uint64) { m.ticks++ }
func (m *minerState) Load(data []uint64) error {
	m.loadedFrom = append([]uint64{}, data...)
	return nil
}

const typeMiner Type = 1
const typeStorageBin Type = 2

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.Register(typeMiner, Config{
		New: func(id ID, chunk uint64) Instance {
			return &minerState{State: State{ID: id, Chunk: chunk}}
		},
	})
	r.Register(typeStorageBin, Config{
		New: func(id ID, chunk uint64) Instance {
			return &minerState{State: State{ID: id, Chunk: chunk}}
		},
		Flags: FlagStorage,
	})
	return r
}

func TestCreateAssignsSequentialSeq(t *testing.T) {
	r := newTestRegistry()
	id1, ok := r.Create(typeMiner, 7)
	if !ok || id1.Seq != 1 {
		t.Fatalf("first create = %v, ok=%v, want seq 1", id1, ok)
	}
	id2, _ := r.Create(typeMiner, 7)
	if id2.Seq != 2 {
		t.Fatalf("second create seq = %d, want 2", id2.Seq)
	}
}

func TestDeleteFreesSlotForReuse(t *testing.T) {
	r := newTestRegistry()
	id1, _ := r.Create(typeMiner, 1)
	r.Delete(id1)
	if r.Get(id1) != nil {
		t.Fatalf("deleted id still resolves to a live instance")
	}
	id2, _ := r.Create(typeMiner, 1)
	if id2.Seq != id1.Seq {
		t.Fatalf("delete did not free its slot for reuse: got seq %d, want %d", id2.Seq, id1.Seq)
	}
}

func TestCreateFromInvokesLoader(t *testing.T) {
	r := newTestRegistry()
	id, err := r.CreateFrom(typeMiner, 1, []uint64{9, 8, 7})
	if err != nil {
		t.Fatal(err)
	}
	inst := r.Get(id).(*minerState)
	if len(inst.loadedFrom) != 3 || inst.loadedFrom[0] != 9 {
		t.Fatalf("Load was not invoked with the payload: %v", inst.loadedFrom)
	}
}

func TestStepRunsOnlyLiveInstancesInTypeOrder(t *testing.T) {
	r := newTestRegistry()
	idA, _ := r.Create(typeStorageBin, 1)
	idB, _ := r.Create(typeMiner, 1)
	r.Delete(idA)

	r.Step(1)

	if r.Get(idA) != nil {
		t.Fatalf("deleted instance resurrected by Step")
	}
	minerInst := r.Get(idB).(*minerState)
	if minerInst.ticks != 1 {
		t.Fatalf("live instance did not step: ticks=%d", minerInst.ticks)
	}
}

func TestUnregisteredTypeCreateFails(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Create(Type(99), 1); ok {
		t.Fatalf("Create on unregistered type succeeded")
	}
}

func TestIsStorageReflectsConfigFlag(t *testing.T) {
	r := newTestRegistry()
	if r.IsStorage(typeMiner) {
		t.Fatalf("typeMiner incorrectly flagged as storage")
	}
	if !r.IsStorage(typeStorageBin) {
		t.Fatalf("typeStorageBin not flagged as storage")
	}
}


