package netsrv

import "testing"

func TestNewServerStartsWithNoSessions(t *testing.T) {
	s := NewServer(60, 4)
	if s.Count() != 0 {
		t.Fatalf("Count = %d, want 0", s.Count())
	}
}

func TestServerRemoveIsSafeOnUnknownID(t *testing.T) {
	s := NewServer(60, 4)
	s.Remove([16]byte{}) // must not panic on an id never Accept-ed
	if s.Count() != 0 {
		t.Fatalf("Count = %d, want 0", s.Count())
	}
}
