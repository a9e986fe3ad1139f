// Package lanes implements inter-star packet delivery (spec.md §4.7): a
// min-heap of in-flight payloads per unordered (src, dst) coordinate pair,
// keyed by arrival tick. Grounded on
// _examples/original_source/src/game/lanes.c.
package lanes

// Coord is a world coordinate. Kept opaque and comparable; world owns the
// concrete representation.
type Coord uint64

// Tick is the world's discrete simulation clock.
type Tick uint64

// Item identifies the payload's resource kind.
type Item uint32

// Kind discriminates what a payload represents for arrival dispatch
// (spec.md §4.7): the original's single `item` field and call-site
// context implicitly told `world_lanes_arrive` which of the three this
// was; Go gives that an explicit tag instead.
type Kind uint8

const (
	// KindActive carries a serialized active item migrating between
	// chunks; arrival recreates it via chunk_create_from.
	KindActive Kind = iota
	// KindPill carries docking cargo; arrival calls pills_arrive(src,
	// cargo).
	KindPill
	// KindData carries a raw io channel packet; arrival looks up the
	// listening item on (src, channel) and injects io_recv.
	KindData
)

// laneKey is the unordered pairing of two coordinates — lane a->b and lane
// b->a share one physical lane and one queue: the pair is stored smaller
// coordinate first, so both orders yield the same key.
type laneKey struct{ a, b Coord }

func newLaneKey(src, dst Coord) laneKey {
	if src <= dst {
		return laneKey{src, dst}
	}
	return laneKey{dst, src}
}

// Payload is one packet traveling down a lane.
type Payload struct {
	Owner uint64
	Kind  Kind
	Item  Item
	Data  []uint64

	forward bool // true if this payload travels lane.src -> lane.dst
}

type entry struct {
	arrive  Tick
	payload Payload
}

// lane is a single physical connection between two stars: a binary
// min-heap of entries ordered by arrival tick, array-backed like lane_queue
// in the original, 0-based (parent at (i-1)/2, children at 2i+1/2i+2).
type lane struct {
	src, dst Coord
	heap     []entry
}

func newLane(src, dst Coord) *lane {
	return &lane{src: src, dst: dst}
}

func (l *lane) push(arrive Tick, p Payload) {
	l.heap = append(l.heap, entry{arrive: arrive, payload: p})
	i := len(l.heap) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if l.heap[parent].arrive <= l.heap[i].arrive {
			break
		}
		l.heap[parent], l.heap[i] = l.heap[i], l.heap[parent]
		i = parent
	}
}

func (l *lane) peek() (Tick, bool) {
	if len(l.heap) == 0 {
		return 0, false
	}
	return l.heap[0].arrive, true
}

func (l *lane) pop() Payload {
	top := l.heap[0].payload
	last := len(l.heap) - 1
	l.heap[0] = l.heap[last]
	l.heap = l.heap[:last]

	i := 0
	for {
		li, ri := 2*i+1, 2*i+2
		smallest := i
		if li < len(l.heap) && l.heap[li].arrive < l.heap[smallest].arrive {
			smallest = li
		}
		if ri < len(l.heap) && l.heap[ri].arrive < l.heap[smallest].arrive {
			smallest = ri
		}
		if smallest == i {
			break
		}
		l.heap[i], l.heap[smallest] = l.heap[smallest], l.heap[i]
		i = smallest
	}
	return top
}

// Arrival is one payload delivered by Step, with its resolved direction.
type Arrival struct {
	Src, Dst Coord
	Payload  Payload
}

// Lanes owns every active lane in the galaxy plus the per-coordinate
// adjacency index used to answer "what lanes touch this star".
type Lanes struct {
	byKey map[laneKey]*lane
	index map[Coord]map[Coord]bool
}

// New constructs an empty lane set.
func New() *Lanes {
	return &Lanes{
		byKey: make(map[laneKey]*lane),
		index: make(map[Coord]map[Coord]bool),
	}
}

func (ls *Lanes) indexAdd(a, b Coord) {
	if ls.index[a] == nil {
		ls.index[a] = make(map[Coord]bool)
	}
	ls.index[a][b] = true
}

func (ls *Lanes) indexDel(a, b Coord) {
	if set := ls.index[a]; set != nil {
		delete(set, b)
		if len(set) == 0 {
			delete(ls.index, a)
		}
	}
}

// Travel computes how many ticks a payload takes to cross src->dst at the
// given speed (lanes_travel: distance / speed). dist is supplied by the
// caller (world owns coordinate geometry).
func Travel(dist, speed uint64) Tick {
	if speed == 0 {
		speed = 1
	}
	return Tick(dist / speed)
}

// Launch enqueues a payload onto the src<->dst lane, creating the lane on
// first use, to arrive at tick now+travel.
func (ls *Lanes) Launch(src, dst Coord, now Tick, travel Tick, p Payload) {
	key := newLaneKey(src, dst)
	l, ok := ls.byKey[key]
	if !ok {
		l = newLane(src, dst)
		ls.byKey[key] = l
		ls.indexAdd(src, dst)
		ls.indexAdd(dst, src)
	}

	p.forward = src == l.src
	l.push(now+travel, p)
}

// Step delivers every payload whose arrival tick is <= now, across every
// lane, and frees lanes left empty afterward. Returns the arrivals in an
// unspecified order across lanes (callers that need determinism should
// sort by (Src, Dst) themselves — lanes.c's htable iteration order is
// likewise unspecified).
func (ls *Lanes) Step(now Tick) []Arrival {
	var arrivals []Arrival

	for key, l := range ls.byKey {
		for {
			ts, ok := l.peek()
			if !ok || ts > now {
				break
			}
			p := l.pop()
			src, dst := l.src, l.dst
			if !p.forward {
				src, dst = dst, src
			}
			arrivals = append(arrivals, Arrival{Src: src, Dst: dst, Payload: p})
		}

		if len(l.heap) == 0 {
			ls.indexDel(l.src, l.dst)
			ls.indexDel(l.dst, l.src)
			delete(ls.byKey, key)
		}
	}

	return arrivals
}

// Entry is one in-flight payload in save/restore form: its logical
// travel direction and absolute arrival tick, rather than lane.c's
// canonical-pair/forward-flag internal representation.
type Entry struct {
	Src, Dst Coord
	Arrive   Tick
	Payload  Payload
}

// Snapshot returns every in-flight payload across every lane, for
// World.Save (internal/world/persist.go) to persist without reaching into a lane's
// private heap layout.
func (ls *Lanes) Snapshot() []Entry {
	var out []Entry
	for _, l := range ls.byKey {
		for _, e := range l.heap {
			src, dst := l.src, l.dst
			if !e.payload.forward {
				src, dst = dst, src
			}
			out = append(out, Entry{Src: src, Dst: dst, Arrive: e.arrive, Payload: e.payload})
		}
	}
	return out
}

// Restore rebuilds a Lanes from entries captured by Snapshot. Each entry
// is replayed through Launch so the canonical (src, dst) pairing and
// forward flag are re-derived exactly as they would be for a fresh
// payload, rather than trusted as serialized state.
func Restore(entries []Entry) *Lanes {
	ls := New()
	for _, e := range entries {
		ls.Launch(e.Src, e.Dst, 0, e.Arrive, e.Payload)
	}
	return ls
}

// Neighbors returns every coordinate reachable by a direct lane from c.
func (ls *Lanes) Neighbors(c Coord) []Coord {
	set := ls.index[c]
	if set == nil {
		return nil
	}
	out := make([]Coord, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
