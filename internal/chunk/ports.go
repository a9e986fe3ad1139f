package chunk

import "legion/internal/active"

// Item identifies the resource kind flowing through a port (ore, plastic,
// energy cells, ...). ItemNil means "no item".
type Item uint32

// ItemNil is the zero Item: no item is being produced/requested.
const ItemNil Item = 0

type portState uint8

const (
	portNil portState = iota
	portRequested
	portReceived
)

// Ports is the per-instance port state spec.md §4.5 describes: one output
// slot (out) a producer fills, and one input slot (in/in_state) a consumer
// requests against.
type Ports struct {
	Out     Item
	In      Item
	InState portState
}

// ioKey addresses a data-packet listener: the remote chunk a packet must
// originate from, packed, plus the channel it was opened on (spec.md
// §4.7's "listening item on (src, channel)").
type ioKey struct {
	src     uint64
	channel uint32
}

// Network owns every active instance's Ports plus the producer/consumer
// FIFOs that chunk_ports_step matches against. One Network exists per
// chunk.
type Network struct {
	registry  *active.Registry
	ports     map[active.ID]*Ports
	provided  map[Item]*fifo
	requested fifo
	storage   fifo

	listeners map[ioKey]active.ID

	Workers Workers
}

// NewNetwork constructs an empty port network bound to reg, which is
// consulted to tell storage-type instances apart from general ones.
func NewNetwork(reg *active.Registry) *Network {
	return &Network{
		registry:  reg,
		ports:     make(map[active.ID]*Ports),
		provided:  make(map[Item]*fifo),
		listeners: make(map[ioKey]active.ID),
	}
}

// Listen registers id as ready to receive data packets arriving at this
// chunk from src on channel. Re-listening on the same (src, channel)
// replaces whatever listener was there before.
func (n *Network) Listen(src uint64, channel uint32, id active.ID) {
	n.listeners[ioKey{src: src, channel: channel}] = id
}

// Unlisten removes whatever listener is registered on (src, channel).
func (n *Network) Unlisten(src uint64, channel uint32) {
	delete(n.listeners, ioKey{src: src, channel: channel})
}

// Listener resolves the active item currently listening for data from
// src on channel.
func (n *Network) Listener(src uint64, channel uint32) (active.ID, bool) {
	id, ok := n.listeners[ioKey{src: src, channel: channel}]
	return id, ok
}

func (n *Network) portsFor(id active.ID) *Ports {
	p, ok := n.ports[id]
	if !ok {
		p = &Ports{}
		n.ports[id] = p
	}
	return p
}

func (n *Network) isStorage(id active.ID) bool {
	return n.registry != nil && n.registry.IsStorage(id.Type)
}

// Reset removes id from whichever producer/consumer queue it inhabits and
// clears both of its slots (chunk_ports_reset).
func (n *Network) Reset(id active.ID) {
	p, ok := n.ports[id]
	if !ok {
		return
	}

	if p.InState == portRequested {
		if n.isStorage(id) {
			n.storage.replace(id)
		} else {
			n.requested.replace(id)
		}
	}

	if p.Out != ItemNil {
		if q, ok := n.provided[p.Out]; ok {
			q.replace(id)
		}
	}

	delete(n.ports, id)
}

// Produce is idempotent: it succeeds only if Out is currently empty
// (chunk_ports_produce).
func (n *Network) Produce(id active.ID, item Item) bool {
	p := n.portsFor(id)
	if p.Out != ItemNil {
		return false
	}
	p.Out = item

	q, ok := n.provided[item]
	if !ok {
		q = &fifo{}
		n.provided[item] = q
	}
	q.push(id)
	return true
}

// Consumed reports whether the producer's Out has been cleared by a
// completed match (chunk_ports_consumed).
func (n *Network) Consumed(id active.ID) bool {
	p, ok := n.ports[id]
	return ok && p.Out == ItemNil
}

// Request is idempotent on the same item; it rejects (no-op) while
// InState is already non-nil on a different item (chunk_ports_request).
func (n *Network) Request(id active.ID, item Item) {
	p := n.portsFor(id)
	if p.InState == portRequested && p.In == item {
		return
	}
	if p.InState != portNil {
		return
	}

	p.In = item
	p.InState = portRequested

	if n.isStorage(id) {
		n.storage.push(id)
	} else {
		n.requested.push(id)
	}
}

// Consume returns the received item if and only if InState is received,
// clearing the slot (chunk_ports_consume).
func (n *Network) Consume(id active.ID) Item {
	p, ok := n.ports[id]
	if !ok || p.InState != portReceived {
		return ItemNil
	}
	ret := p.In
	p.In = ItemNil
	p.InState = portNil
	return ret
}
