// Package chunk implements chunk logistics (spec.md §4.5): the per-chunk
// port network and worker pool matching, plus the chunk-step driver that
// sequences energy accounting around it. Grounded on
// _examples/original_source/src/game/chunk.c.
package chunk

import (
	"legion/internal/active"
	"legion/internal/energy"
)

// Coord is a chunk's position in the galaxy. Kept opaque here; the world
// package owns its concrete representation and passes Coord values through
// unexamined.
type Coord uint64

// Chunk is one simulated sector cell: its active-item registry, its port
// network and worker pool, and its energy state.
type Chunk struct {
	Coord    Coord
	Active   *active.Registry
	Ports    *Network
	Energy   energy.Energy
	Star     energy.StarScanner
}

// New constructs a chunk with a worker count fixed at creation, mirroring
// the original's chunk->workers.count being set once at chunk_alloc time.
func New(coord Coord, star energy.StarScanner, workerCount uint32) *Chunk {
	reg := active.NewRegistry()
	c := &Chunk{
		Coord:  coord,
		Active: reg,
		Ports:  NewNetwork(reg),
		Star:   star,
	}
	c.Ports.Workers.Count = workerCount
	return c
}

// Step runs one simulation tick for this chunk in the order chunk.c's
// chunk_step enforces: energy accounting begins, every active item steps,
// the port network matches producers to consumers, and energy accounting
// ends. Reordering this — e.g. running ports before active items step —
// would let an item both produce and have that same tick's output consumed
// before its own step runs, double-counting production within one tick.
func (c *Chunk) Step() {
	c.Energy.StepBegin(c.Star)
	c.Active.Step(uint64(c.Coord))
	c.Ports.Step()
	c.Energy.StepEnd()
}


