package world

import (
	"sort"
	"sync"

	"legion/internal/atoms"
	"legion/internal/chunk"
	"legion/internal/energy"
	"legion/internal/gamelog"
	"legion/internal/lanes"
	"legion/internal/mod"
	"legion/internal/tech"
	"legion/internal/users"
)

// UserID identifies a player/account.
type UserID uint64

// Tick is the simulation's discrete clock, advanced once per Step.
type Tick uint64

// star is the minimal star description a chunk's energy tick scans
// against (energy.StarScanner), owned here so World controls generation.
type star struct {
	energy energy.Value
	elemK  uint16
}

func (s *star) StarEnergy() energy.Value { return s.energy }
func (s *star) ElemK() uint16             { return s.elemK }

// World is the top-level simulation: every chunk, the lane network linking
// them, the shared mod/atom registries, and per-user state.
type World struct {
	mu sync.RWMutex

	now Tick

	chunks map[Coord]*chunk.Chunk
	stars  map[Coord]*star
	lanes  *lanes.Lanes
	atoms  *atoms.Table
	mods   *mod.Registry
	log    *gamelog.Log
	users  *users.Registry

	homes map[UserID]Coord
	tech  map[UserID]*tech.Known

	workersPerChunk uint32
}

// New constructs an empty galaxy.
func New(workersPerChunk uint32) *World {
	return &World{
		chunks:          make(map[Coord]*chunk.Chunk),
		stars:           make(map[Coord]*star),
		lanes:           lanes.New(),
		atoms:           atoms.New(),
		mods:            mod.NewRegistry(),
		log:             gamelog.New(),
		users:           users.NewRegistry(),
		homes:           make(map[UserID]Coord),
		tech:            make(map[UserID]*tech.Known),
		workersPerChunk: workersPerChunk,
	}
}

// Now returns the current tick (world_time).
func (w *World) Now() Tick {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.now
}

// Atoms returns the shared string-intern table (world_atoms).
func (w *World) Atoms() *atoms.Table { return w.atoms }

// Mods returns the shared mod registry (world_mods).
func (w *World) Mods() *mod.Registry { return w.mods }

// Lanes returns the shared lane network (world_lanes).
func (w *World) Lanes() *lanes.Lanes { return w.lanes }

// Log returns the shared simulation log ring (world_log).
func (w *World) Log() *gamelog.Log { return w.log }

// Users returns the shared account/token registry (world_users), used by
// netsrv session upgrades to authenticate which user a connection speaks
// for before any command is dispatched on its behalf.
func (w *World) Users() *users.Registry { return w.users }

// ChunkAlloc creates (or returns the existing) chunk at coord, owned by
// user, with a star of the given energy/elemK rating (world_chunk_alloc).
func (w *World) ChunkAlloc(coord Coord, owner UserID, starEnergy energy.Value, elemK uint16) *chunk.Chunk {
	w.mu.Lock()
	defer w.mu.Unlock()

	if c, ok := w.chunks[coord]; ok {
		return c
	}

	st := &star{energy: starEnergy, elemK: elemK}
	w.stars[coord] = st
	c := chunk.New(chunk.Coord(coord.ToU64()), st, w.workersPerChunk)
	w.chunks[coord] = c
	return c
}

// Chunk returns the chunk at coord, or nil if none exists (world_chunk).
func (w *World) Chunk(coord Coord) *chunk.Chunk {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.chunks[coord]
}

// Home returns user's home coordinate (world_home).
func (w *World) Home(user UserID) Coord {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.homes[user]
}

// SetHome records user's home coordinate (populate-time setup).
func (w *World) SetHome(user UserID, coord Coord) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.homes[user] = coord
}

// Tech returns user's knowledge state, creating an empty one on first
// access (world_tech).
func (w *World) Tech(user UserID) *tech.Known {
	w.mu.Lock()
	defer w.mu.Unlock()
	k, ok := w.tech[user]
	if !ok {
		k = tech.New()
		w.tech[user] = k
	}
	return k
}

// UserAccess reports whether coord is reachable by any user in filter
// (world_user_access). An empty filter means "no restriction" —
// everything is visible — matching a nil user_set meaning "unfiltered" in
// the original's state-broadcast path.
func (w *World) UserAccess(filter map[UserID]bool, coord Coord) bool {
	if len(filter) == 0 {
		return true
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	for user := range filter {
		if w.homes[user] == coord {
			return true
		}
	}
	return false
}

// ChunkCoords returns every allocated chunk's coordinate, sorted for
// deterministic iteration (world_chunk_it's contract: callers must see a
// stable order across runs so step outcomes are reproducible).
func (w *World) ChunkCoords() []Coord {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]Coord, 0, len(w.chunks))
	for c := range w.chunks {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

// Arrival is a lane delivery that Step has already routed to the
// destination chunk; callers (netsrv/protocol) translate it into the
// target active item's IO call.
type Arrival = lanes.Arrival

// dispatchArrival routes one lane delivery to its destination chunk
// (spec.md §4.7's arrival dispatch). A dispatch failure — no such chunk, a
// full pill bay, no listener on the target channel, a failed tech gate —
// is recorded in the log rather than propagated, matching world_lanes_arrive's
// "log and drop" contract: one bad arrival must never abort the tick.
func (w *World) dispatchArrival(now Tick, a Arrival) {
	dst := FromU64(uint64(a.Dst))
	c := w.Chunk(dst)
	if c == nil {
		w.log.Push(uint64(now), uint64(a.Src), a.Payload.Owner, uint8(a.Payload.Kind), gamelog.IOErrArrival)
		return
	}

	known := w.Tech(UserID(a.Payload.Owner)).Bits()
	if err := c.Arrive(uint64(a.Src), uint64(known), a.Payload); err != nil {
		w.log.Push(uint64(now), uint64(a.Src), a.Payload.Owner, uint8(a.Payload.Kind), gamelog.IOErrArrival)
	}
}

// Step advances the simulation by one tick: lanes deliver first (so
// arriving cargo is visible to this tick's active items) and every
// arrival is dispatched to its destination chunk, then every chunk steps
// in deterministic coordinate order. Returns the tick's lane arrivals,
// sorted by (Src, Dst) so callers observing them (e.g. session state
// pushes) see a reproducible order across runs.
func (w *World) Step() []Arrival {
	w.mu.Lock()
	w.now++
	now := w.now
	w.mu.Unlock()

	arrivals := w.lanes.Step(lanes.Tick(now))
	sort.Slice(arrivals, func(i, j int) bool {
		if arrivals[i].Src != arrivals[j].Src {
			return arrivals[i].Src < arrivals[j].Src
		}
		return arrivals[i].Dst < arrivals[j].Dst
	})

	for _, a := range arrivals {
		w.dispatchArrival(now, a)
	}

	for _, coord := range w.ChunkCoords() {
		if c := w.Chunk(coord); c != nil {
			c.Step()
		}
	}

	return arrivals
}

// Launch queues a payload for lane delivery from src to dst, computing
// travel time from their distance and the given speed (lanes_launch +
// lanes_travel).
func (w *World) Launch(src, dst Coord, speed uint64, p lanes.Payload) {
	travel := lanes.Travel(src.Dist(dst), speed)
	if travel == 0 {
		travel = 1
	}
	w.lanes.Launch(lanes.Coord(src.ToU64()), lanes.Coord(dst.ToU64()), lanes.Tick(w.Now()), travel, p)
}
