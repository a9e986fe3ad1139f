// Package active implements the active-item subsystem (spec.md §4.4): a
// per-type arena of simulated items (miners, factories, ports, ships — any
// chunk-resident entity with a lifecycle), each type declaring a static
// config of lifecycle callbacks.
package active

import "fmt"

// Type identifies one of the statically registered active item kinds.
type Type uint16

// ID addresses a single live instance: its type plus a 1-based sequence
// number within that type's arena.
type ID struct {
	Type Type
	Seq  uint32
}

func (id ID) String() string {
	return fmt.Sprintf("%d:%d", id.Type, id.Seq)
}

// IsZero reports whether id is the zero value (never a valid handle, since
// sequence numbers are 1-based).
func (id ID) IsZero() bool {
	return id.Seq == 0
}

// State is the per-instance payload a type's callbacks operate on. Concrete
// types embed State and add their own fields; the arena only ever sees this
// common header.
type State struct {
	ID    ID
	Chunk uint64
	live  bool
}

// Stepper is implemented by instance state that needs to run every world
// tick.
type Stepper interface {
	Step(chunk uint64)
}

// IOHandler is implemented by instance state that accepts host/remote I/O
// requests (spec.md §4.4 "io(chunk, io, src, dst, args[])").
type IOHandler interface {
	IO(chunk uint64, io uint8, src, dst ID, args []uint64)
}

// Loader is implemented by instance state that can rehydrate from a
// type-specific payload (used by create_from, e.g. when a save frame or an
// incoming lane payload delivers serialized state for a new instance).
type Loader interface {
	Load(data []uint64) error
}

// Config is the static per-type declaration named in spec.md §4.4:
// {size, init, load, step, io, io_list, lab_bits, flags}.
type Config struct {
	// New allocates a fresh, zeroed instance of the type's concrete state.
	// This stands in for the C struct's fixed `size` field: Go has no
	// value-type arena of heterogeneous structs, so each type owns its own
	// allocator instead of the arena computing an offset by size.
	New func(id ID, chunk uint64) Instance

	// LabBits selects which lab technologies must be unlocked for a user
	// before this type may be created (spec.md §4.4, supplemented from
	// original_source tech gating).
	LabBits uint64

	// Flags carries type-level behavior bits (e.g. "storage item", used by
	// the chunk logistics storage/requested FIFO split in spec.md §4.5).
	Flags uint32
}

const (
	// FlagStorage marks a type whose io_list makes it a "storage" item for
	// chunk-logistics purposes (internal/chunk routes requests for storage
	// items through the storage FIFO rather than requested).
	FlagStorage uint32 = 1 << iota
)

// Instance is the common interface every active item's state satisfies.
// Stepper, IOHandler and Loader are optional — callers use the usual Go
// type-switch/interface-assertion idiom (spec.md "calls step(...) if
// provided").
type Instance interface {
	Header() *State
}

// Arena holds every live instance of one Type, indexed by seq-1, growing
// geometrically as create() is called — mirroring spec.md §4.4's "the
// arena for T is indexed by seq-1 and grown geometrically."
type Arena struct {
	cfg       Config
	instances []Instance // index i holds seq i+1; nil means free
	freeList  []uint32   // free slot seqs, reusable by create()
}

func newArena(cfg Config) *Arena {
	return &Arena{cfg: cfg}
}

// create allocates the next free slot, calls init via cfg.New, and returns
// the new id.
func (a *Arena) create(t Type, chunk uint64) ID {
	var seq uint32
	if n := len(a.freeList); n > 0 {
		seq = a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
	} else {
		a.instances = append(a.instances, nil)
		seq = uint32(len(a.instances))
	}
	id := ID{Type: t, Seq: seq}
	inst := a.cfg.New(id, chunk)
	inst.Header().live = true
	a.instances[seq-1] = inst
	return id
}

// createFrom behaves like create but additionally runs the type's
// deserializer (if it implements Loader) over an arriving payload.
func (a *Arena) createFrom(t Type, chunk uint64, data []uint64) (ID, error) {
	id := a.create(t, chunk)
	inst := a.instances[id.Seq-1]
	if l, ok := inst.(Loader); ok {
		if err := l.Load(data); err != nil {
			a.delete(id)
			return ID{}, err
		}
	}
	return id, nil
}

// delete resets the instance's ports (left to the caller — active has no
// notion of ports itself; see internal/chunk) and marks the slot free so a
// later create() may reuse it.
func (a *Arena) delete(id ID) {
	i := int(id.Seq) - 1
	if i < 0 || i >= len(a.instances) || a.instances[i] == nil {
		return
	}
	a.instances[i].Header().live = false
	a.instances[i] = nil
	a.freeList = append(a.freeList, id.Seq)
}

// get returns the live instance for id, or nil if the slot is free or out
// of range.
func (a *Arena) get(id ID) Instance {
	i := int(id.Seq) - 1
	if i < 0 || i >= len(a.instances) {
		return nil
	}
	return a.instances[i]
}

// step iterates every live instance in seq order and calls Step if the
// instance implements Stepper.
func (a *Arena) step(chunk uint64) {
	for _, inst := range a.instances {
		if inst == nil || !inst.Header().live {
			continue
		}
		if s, ok := inst.(Stepper); ok {
			s.Step(chunk)
		}
	}
}

// Registry is the set of all registered active item types, keyed by Type.
// One Registry exists per chunk (spec.md's arenas are per-chunk).
type Registry struct {
	configs map[Type]Config
	arenas  map[Type]*Arena
}

// NewRegistry constructs an empty registry. Each chunk builds its own
// Registry and registers its active item types on it via Register.
func NewRegistry() *Registry {
	return &Registry{
		configs: make(map[Type]Config),
		arenas:  make(map[Type]*Arena),
	}
}

// Register declares a new active item type's static config. Re-registering
// an existing Type replaces its config for future arenas (existing arenas
// keep their original cfg, matching the C model where a type's shape is
// fixed once items of it exist).
func (r *Registry) Register(t Type, cfg Config) {
	r.configs[t] = cfg
}

func (r *Registry) arenaFor(t Type) (*Arena, bool) {
	a, ok := r.arenas[t]
	if ok {
		return a, true
	}
	cfg, ok := r.configs[t]
	if !ok {
		return nil, false
	}
	a = newArena(cfg)
	r.arenas[t] = a
	return a, true
}

// Create allocates a new instance of t in chunk. Returns the zero ID and
// false if t was never registered.
func (r *Registry) Create(t Type, chunk uint64) (ID, bool) {
	a, ok := r.arenaFor(t)
	if !ok {
		return ID{}, false
	}
	return a.create(t, chunk), true
}

// CreateFrom is Create plus a type-specific deserialize step over data.
func (r *Registry) CreateFrom(t Type, chunk uint64, data []uint64) (ID, error) {
	a, ok := r.arenaFor(t)
	if !ok {
		return ID{}, fmt.Errorf("active: unregistered type %d", t)
	}
	return a.createFrom(t, chunk, data)
}

// Delete frees id's slot.
func (r *Registry) Delete(id ID) {
	if a, ok := r.arenas[id.Type]; ok {
		a.delete(id)
	}
}

// Get returns the live instance addressed by id, or nil.
func (r *Registry) Get(id ID) Instance {
	a, ok := r.arenas[id.Type]
	if !ok {
		return nil
	}
	return a.get(id)
}

// Step runs every registered type's arena.step for chunk, in ascending
// Type order so iteration is deterministic across runs (spec.md's world
// stepper requires reproducible tick ordering).
func (r *Registry) Step(chunk uint64) {
	types := make([]Type, 0, len(r.arenas))
	for t := range r.arenas {
		types = append(types, t)
	}
	sortTypes(types)
	for _, t := range types {
		r.arenas[t].step(chunk)
	}
}

// IO dispatches to dst's IO handler if present. spec.md: "the handler is
// responsible for all side effects and for optionally echoing a response
// via chunk_io" — that echo is left to the concrete handler, which holds
// whatever chunk_io callback it needs.
func (r *Registry) IO(chunk uint64, io uint8, src, dst ID, args []uint64) bool {
	inst := r.Get(dst)
	if inst == nil {
		return false
	}
	h, ok := inst.(IOHandler)
	if !ok {
		return false
	}
	h.IO(chunk, io, src, dst, args)
	return true
}

// IsStorage reports whether t's config marks it a storage item, per
// spec.md §4.5's storage/requested FIFO split.
func (r *Registry) IsStorage(t Type) bool {
	cfg, ok := r.configs[t]
	return ok && cfg.Flags&FlagStorage != 0
}

func sortTypes(types []Type) {
	for i := 1; i < len(types); i++ {
		for j := i; j > 0 && types[j-1] > types[j]; j-- {
			types[j-1], types[j] = types[j], types[j-1]
		}
	}
}


