package save

import (
	"bytes"
	"testing"

	"legion/internal/testutil"
)

func TestWriteReadMagicRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteMagic(MagicEnergy)
	w.WriteUint64(42)
	w.WriteMagic(MagicEnergy)
	if w.Err() != nil {
		t.Fatal(w.Err())
	}

	r := NewReader(&buf)
	if !r.ReadMagic(MagicEnergy) {
		t.Fatalf("leading magic mismatch: %v", r.Err())
	}
	if got := r.ReadUint64(); got != 42 {
		t.Fatalf("value = %d, want 42", got)
	}
	if !r.ReadMagic(MagicEnergy) {
		t.Fatalf("trailing magic mismatch: %v", r.Err())
	}
}

func TestReadMagicMismatchSetsErr(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.WriteMagic(MagicPills)

	r := NewReader(&buf)
	if r.ReadMagic(MagicEnergy) {
		t.Fatalf("mismatched magic reported as matching")
	}
	if r.Err() == nil {
		t.Fatalf("mismatched magic did not set Err")
	}
}

func TestFileBackendRoundTrip(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatal(err)
	}
	defer sb.Cleanup()

	b := NewFileBackend(sb.Path("test.legion"))

	payload := []byte("a save frame with enough bytes to exercise compression")
	if err := b.Save(payload); err != nil {
		t.Fatal(err)
	}

	got, err := b.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("Load = %q, want %q", got, payload)
	}
}

func TestRingBackendWriteReadCommitCycle(t *testing.T) {
	ring := NewRingBackend(16)

	if ring.ReadCap() != 0 {
		t.Fatalf("fresh ring ReadCap = %d, want 0", ring.ReadCap())
	}
	if ring.WriteCap() != 16 {
		t.Fatalf("fresh ring WriteCap = %d, want 16", ring.WriteCap())
	}

	data := bytes.Repeat([]byte{0xAB}, 10)
	if _, err := ring.Write(data); err != nil {
		t.Fatal(err)
	}
	if ring.ReadCap() != 10 {
		t.Fatalf("ReadCap after write = %d, want 10", ring.ReadCap())
	}

	out := make([]byte, 10)
	n, err := ring.Read(out)
	if err != nil {
		t.Fatal(err)
	}
	if n != 10 || !bytes.Equal(out, data) {
		t.Fatalf("Read = %q (n=%d), want %q", out, n, data)
	}
	if ring.ReadCap() != 0 {
		t.Fatalf("ReadCap after full drain = %d, want 0", ring.ReadCap())
	}
}

func TestRingBackendWrapsAroundCapacity(t *testing.T) {
	ring := NewRingBackend(8)

	ring.Write(bytes.Repeat([]byte{1}, 5))
	drained := make([]byte, 5)
	ring.Read(drained)

	// writeCursor sits at 5 of 8, so this 6-byte write wraps past the
	// buffer's end.
	payload := bytes.Repeat([]byte{2}, 6)
	if _, err := ring.Write(payload); err != nil {
		t.Fatal(err)
	}
	out := make([]byte, 6)
	ring.Read(out)
	if !bytes.Equal(out, payload) {
		t.Fatalf("wrapped read = %v, want %v", out, payload)
	}
}

func TestRingBackendRejectsOversizedWrite(t *testing.T) {
	ring := NewRingBackend(4)
	if _, err := ring.Write(make([]byte, 5)); err == nil {
		t.Fatalf("write larger than capacity did not fail")
	}
}

func TestPageCacheEviction(t *testing.T) {
	pc, err := NewPageCache(2)
	if err != nil {
		t.Fatal(err)
	}
	pc.Put(1, []byte("a"))
	pc.Put(2, []byte("b"))
	pc.Put(3, []byte("c")) // evicts key 1 (least recently used)

	if _, ok := pc.Get(1); ok {
		t.Fatalf("key 1 was not evicted")
	}
	if v, ok := pc.Get(3); !ok || string(v) != "c" {
		t.Fatalf("Get(3) = %q, %v", v, ok)
	}
}


