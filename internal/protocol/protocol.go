// Package protocol implements the state/ack/cmd wire records exchanged
// between the simulation and a connected session (spec.md §4.8), grounded
// on _examples/original_source/src/game/protocol.c's ack/status records
// and the delta-encoding contract visible there (an ack tracks what a
// client has already seen so State only serializes what changed).
package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// StreamID identifies one session's state stream; a mismatched StreamID on
// an incoming Ack means the client reconnected and must receive a full
// frame instead of a delta (ack->stream in the original).
type StreamID = uuid.UUID

// NewStreamID mints a fresh stream id for a new session.
func NewStreamID() StreamID {
	return uuid.New()
}

// Checksum is a fast content fingerprint used to detect whether a chunk's
// provided-items table changed since the client's last ack, grounded on
// the original's per-field save/compare pattern but using a single hash
// rather than a full field-by-field table.
type Checksum uint64

// Sum computes a Checksum over b.
func Sum(b []byte) Checksum {
	return Checksum(xxhash.Sum64(b))
}

// ChunkAck is what a session has already acknowledged for one chunk: the
// tick it last saw, and checksums of each sub-record so State can skip
// re-sending anything unchanged (chunk_ack in protocol.c).
type ChunkAck struct {
	Coord uint64
	Time  uint64

	Provided  Checksum
	Requested Checksum
	Storage   Checksum
	Pills     Checksum
	Active    map[uint16]Checksum // keyed by active.Type
}

// Ack is the full per-session acknowledgment record a client sends back to
// request the next delta (struct ack in protocol.c).
type Ack struct {
	Stream StreamID
	Time   uint64
	Atoms  uint64 // count of atoms the client has already interned

	Chunk ChunkAck
}

// NewAck constructs an empty ack for a fresh stream.
func NewAck(stream StreamID) *Ack {
	return &Ack{Stream: stream, Chunk: ChunkAck{Active: make(map[uint16]Checksum)}}
}

// Reset clears every field back to a fresh-stream state (ack_reset).
func (a *Ack) Reset() {
	a.Time = 0
	a.Atoms = 0
	a.Chunk = ChunkAck{Active: make(map[uint16]Checksum)}
}

// ResetChunk clears only the per-chunk acknowledgment, e.g. when the
// client's viewport moves to a different chunk (ack_reset_chunk).
func (a *Ack) ResetChunk() {
	a.Chunk = ChunkAck{Active: make(map[uint16]Checksum)}
}

// Delta describes what a State frame actually carries for one chunk: only
// the sub-records whose checksum differs from the client's last Ack.
type Delta struct {
	Coord uint64
	Time  uint64

	Provided  []byte // nil if unchanged since the client's ack
	Requested []byte
	Storage   []byte
	Pills     []byte
	Active    map[uint16][]byte
}

// ChunkSnapshot is the full, pre-encoding view of one chunk's
// client-visible state, computed fresh every tick by the world/netsrv
// layer and diffed against an Ack to produce a Delta.
type ChunkSnapshot struct {
	Coord uint64
	Time  uint64

	Provided  []byte
	Requested []byte
	Storage   []byte
	Pills     []byte
	Active    map[uint16][]byte
}

// BuildDelta compares snap against the client's last ack and returns only
// what changed, updating ack in place to reflect what will have been sent.
// fresh forces every field through unconditionally (a fresh stream has
// nothing to diff against).
func BuildDelta(snap ChunkSnapshot, ack *Ack, fresh bool) Delta {
	d := Delta{Coord: snap.Coord, Time: snap.Time, Active: make(map[uint16][]byte)}

	providedSum := Sum(snap.Provided)
	if fresh || providedSum != ack.Chunk.Provided {
		d.Provided = snap.Provided
		ack.Chunk.Provided = providedSum
	}

	requestedSum := Sum(snap.Requested)
	if fresh || requestedSum != ack.Chunk.Requested {
		d.Requested = snap.Requested
		ack.Chunk.Requested = requestedSum
	}

	storageSum := Sum(snap.Storage)
	if fresh || storageSum != ack.Chunk.Storage {
		d.Storage = snap.Storage
		ack.Chunk.Storage = storageSum
	}

	pillsSum := Sum(snap.Pills)
	if fresh || pillsSum != ack.Chunk.Pills {
		d.Pills = snap.Pills
		ack.Chunk.Pills = pillsSum
	}

	if ack.Chunk.Active == nil {
		ack.Chunk.Active = make(map[uint16]Checksum)
	}
	for t, payload := range snap.Active {
		sum := Sum(payload)
		if fresh || sum != ack.Chunk.Active[t] {
			d.Active[t] = payload
			ack.Chunk.Active[t] = sum
		}
	}

	ack.Chunk.Coord = snap.Coord
	ack.Chunk.Time = snap.Time
	return d
}

// CmdKind identifies what a user command asks the simulation to do.
type CmdKind uint8

const (
	CmdNone CmdKind = iota
	CmdIO           // dispatch an io() call into an active instance
	CmdMod          // resolve a mod's latest version
	CmdScan         // probe a coordinate or item
)

// Cmd is one inbound user command (spec.md §4.8's cmd half of the
// protocol).
type Cmd struct {
	Kind CmdKind
	Args []uint64
}

// Encode serializes c as (kind:1 byte, argc:4 bytes LE, args: argc*8 bytes
// LE) — a Session reads this back verbatim off its websocket connection,
// so the wire format never needs to change independent of Go's in-memory
// Cmd shape.
func (c Cmd) Encode() []byte {
	buf := make([]byte, 5+8*len(c.Args))
	buf[0] = byte(c.Kind)
	binary.LittleEndian.PutUint32(buf[1:5], uint32(len(c.Args)))
	for i, a := range c.Args {
		binary.LittleEndian.PutUint64(buf[5+8*i:], a)
	}
	return buf
}

// DecodeCmd parses a frame produced by Cmd.Encode.
func DecodeCmd(data []byte) (Cmd, error) {
	if len(data) < 5 {
		return Cmd{}, fmt.Errorf("protocol: cmd frame too short: %d bytes", len(data))
	}
	kind := CmdKind(data[0])
	argc := binary.LittleEndian.Uint32(data[1:5])
	want := 5 + 8*int(argc)
	if len(data) != want {
		return Cmd{}, fmt.Errorf("protocol: cmd frame declares %d args, got %d bytes, want %d", argc, len(data), want)
	}
	args := make([]uint64, argc)
	for i := range args {
		args[i] = binary.LittleEndian.Uint64(data[5+8*i:])
	}
	return Cmd{Kind: kind, Args: args}, nil
}
