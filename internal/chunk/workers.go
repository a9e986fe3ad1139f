package chunk

import "legion/internal/active"

// Op records one completed producer->consumer match, appended to
// Workers.Ops during a step (chunk.c's workers.ops vec32 of packed
// src<<16|dst pairs — kept here as a plain struct instead of a packed
// integer, since Go has no reason to pack two IDs into one word).
type Op struct {
	Src active.ID
	Dst active.ID
}

// Workers tracks the per-tick worker-pool counters from spec.md §4.5:
// how many requests queued up, how many matched, how many failed to match,
// how many popped an already-tombstoned slot, and how many workers sat
// idle because the queues ran dry before Count was exhausted.
type Workers struct {
	Count uint32

	Queue uint32
	Idle  uint32
	Fail  uint32
	Clean uint32
	Ops   []Op
}

// Step runs one chunk_ports_step: up to Count workers first drain the
// requested queue, then any workers left over drain the storage queue.
// This mirrors chunk_ports_step in chunk.c exactly, including the
// "stop id" cycle-detection trick in stepQueue.
func (n *Network) Step() {
	w := &n.Workers
	w.Idle = 0
	w.Fail = 0
	w.Clean = 0
	w.Queue = uint32(n.requested.len())
	w.Ops = w.Ops[:0]

	worker := uint32(0)

	var stop active.ID
	for ; worker < w.Count; worker++ {
		if !n.stepQueue(&n.requested, &stop) {
			break
		}
	}

	stop = active.ID{}
	for ; worker < w.Count; worker++ {
		if !n.stepQueue(&n.storage, &stop) {
			break
		}
	}

	w.Idle = w.Count - worker
}

// stepQueue pops one consumer off requested and tries to match it against
// its requested item's provider queue. It returns false once requested is
// empty or a full cycle has passed with no progress (detected by stop,
// the first id re-enqueued after a failed match this pass).
func (n *Network) stepQueue(requested *fifo, stop *active.ID) bool {
	w := &n.Workers

	if requested.empty() {
		return false
	}
	if !stop.IsZero() && *stop == requested.peek() {
		return false
	}

	dst := requested.pop()
	if dst.IsZero() {
		w.Clean++
		return true
	}

	in, ok := n.ports[dst]
	if !ok || in.InState != portRequested {
		return true
	}

	provided, ok := n.provided[in.In]
	if !ok || provided.empty() {
		n.noMatch(requested, dst, stop)
		return true
	}

	src := provided.pop()
	if src.IsZero() {
		w.Clean++
		n.noMatch(requested, dst, stop)
		return true
	}

	// Moving to and from storage just adds noise.
	if n.isStorage(src) && n.isStorage(dst) {
		provided.push(src)
		n.noMatch(requested, dst, stop)
		return true
	}

	out := n.ports[src]
	out.Out = ItemNil
	in.InState = portReceived

	w.Ops = append(w.Ops, Op{Src: src, Dst: dst})
	return true
}

func (n *Network) noMatch(requested *fifo, dst active.ID, stop *active.ID) {
	requested.push(dst)
	if stop.IsZero() {
		*stop = dst
	}
	n.Workers.Fail++
}
