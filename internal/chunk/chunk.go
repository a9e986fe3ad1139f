// Package chunk implements chunk logistics (spec.md §4.5): the per-chunk
// port network and worker pool matching, plus the chunk-step driver that
// sequences energy accounting around it. Grounded on
// _examples/original_source/src/game/chunk.c.
package chunk

import (
	"fmt"

	"legion/internal/active"
	"legion/internal/energy"
	"legion/internal/lanes"
	"legion/internal/pills"
)

// Coord is a chunk's position in the galaxy. Kept opaque here; the world
// package owns its concrete representation and passes Coord values through
// unexamined.
type Coord uint64

// Chunk is one simulated sector cell: its active-item registry, its port
// network and worker pool, its energy state, and its docked-pill bay.
type Chunk struct {
	Coord    Coord
	Active   *active.Registry
	Ports    *Network
	Pills    *pills.Registry
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
		Pills:  pills.NewRegistry(),
		Star:   star,
	}
	c.Ports.Workers.Count = workerCount
	return c
}

// unpackChannelLen splits a lane data payload's header word into the
// channel it targets and its declared argument length, packed
// (channel:32, len:32) per spec.md §4.7.
func unpackChannelLen(header uint64) (channel, length uint32) {
	return uint32(header >> 32), uint32(header)
}

// Arrive handles one lane delivery addressed to this chunk (spec.md
// §4.7's arrival dispatch, run once per Arrival by world.World.Step):
//   - an active payload recreates the item here, gated by known (the
//     owning user's tech.Known.Bits());
//   - a pill payload docks as cargo;
//   - a data payload is routed to whatever active item is listening for
//     it on (src, channel), injecting active.IORecv.
//
// src is the remote coordinate the payload arrived from, packed the way
// world.Coord.ToU64 does.
func (c *Chunk) Arrive(src uint64, known uint64, p lanes.Payload) error {
	switch p.Kind {
	case lanes.KindActive:
		_, err := c.Active.CreateFrom(active.Type(p.Item), uint64(c.Coord), known, p.Data)
		return err

	case lanes.KindPill:
		var count uint32
		if len(p.Data) > 0 {
			count = uint32(p.Data[0])
		}
		if !c.Pills.Arrive(pills.Coord(src), pills.Cargo{Item: pills.Item(p.Item), Count: count}) {
			return fmt.Errorf("chunk: pill bay full at %#x", c.Coord)
		}
		return nil

	case lanes.KindData:
		if len(p.Data) == 0 {
			return fmt.Errorf("chunk: empty data payload from %#x", src)
		}
		channel, length := unpackChannelLen(p.Data[0])
		dst, ok := c.Ports.Listener(src, channel)
		if !ok {
			return fmt.Errorf("chunk: no listener on channel %d from %#x", channel, src)
		}
		args := p.Data[1:]
		if int(length) < len(args) {
			args = args[:length]
		}
		// The remote sender has no locally-resolvable active.ID; src is
		// left zero and the listener, if it cares who sent this, reads
		// p.Owner out of args/state it already tracks from Listen.
		if !c.Active.IO(uint64(c.Coord), active.IORecv, active.ID{}, dst, args) {
			return fmt.Errorf("chunk: io_recv dropped, %s has no IO handler", dst)
		}
		return nil

	default:
		return fmt.Errorf("chunk: unknown payload kind %d from %#x", p.Kind, src)
	}
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
