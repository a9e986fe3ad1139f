package protocol

import "testing"

func TestBuildDeltaFreshStreamSendsEverything(t *testing.T) {
	ack := NewAck(NewStreamID())
	snap := ChunkSnapshot{
		Coord:     7,
		Provided:  []byte{1, 2, 3},
		Requested: []byte{4},
		Active:    map[uint16][]byte{1: {9}},
	}

	d := BuildDelta(snap, ack, true)
	if d.Provided == nil || d.Requested == nil {
		t.Fatalf("fresh stream omitted fields: %+v", d)
	}
	if d.Active[1] == nil {
		t.Fatalf("fresh stream omitted active field")
	}
}

func TestBuildDeltaSkipsUnchangedFields(t *testing.T) {
	ack := NewAck(NewStreamID())
	snap := ChunkSnapshot{
		Coord:     7,
		Provided:  []byte{1, 2, 3},
		Requested: []byte{4},
	}

	BuildDelta(snap, ack, true) // establish baseline
	d := BuildDelta(snap, ack, false)

	if d.Provided != nil || d.Requested != nil {
		t.Fatalf("unchanged fields were re-sent: %+v", d)
	}
}

func TestBuildDeltaSendsOnlyChangedField(t *testing.T) {
	ack := NewAck(NewStreamID())
	snap := ChunkSnapshot{Provided: []byte{1}, Requested: []byte{2}}
	BuildDelta(snap, ack, true)

	snap.Provided = []byte{9, 9, 9}
	d := BuildDelta(snap, ack, false)

	if d.Provided == nil {
		t.Fatalf("changed field not sent")
	}
	if d.Requested != nil {
		t.Fatalf("unchanged field sent: %v", d.Requested)
	}
}

func TestAckResetChunkPreservesStreamAndAtoms(t *testing.T) {
	ack := NewAck(NewStreamID())
	ack.Atoms = 42
	ack.Chunk.Provided = Checksum(1)

	ack.ResetChunk()

	if ack.Atoms != 42 {
		t.Fatalf("ResetChunk cleared Atoms")
	}
	if ack.Chunk.Provided != 0 {
		t.Fatalf("ResetChunk did not clear chunk state")
	}
}


