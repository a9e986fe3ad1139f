package gamelog

import "testing"

func TestPushAndErrorsNewestFirst(t *testing.T) {
	l := New()
	l.Push(1, 0, 0, 1, IOErrNone)
	l.Push(2, 0, 0, 1, IOErr(5))
	l.Push(3, 0, 0, 1, IOErr(7))

	errs := l.Errors()
	if len(errs) != 2 {
		t.Fatalf("Errors = %v, want 2 entries", errs)
	}
	if errs[0].Time != 3 || errs[1].Time != 2 {
		t.Fatalf("Errors not newest-first: %v", errs)
	}
}

func TestPushOverwritesOldestOnceFull(t *testing.T) {
	l := New()
	for i := 0; i < Cap+10; i++ {
		l.Push(uint64(i), 0, 0, 0, IOErr(1))
	}
	if l.Len() != Cap {
		t.Fatalf("Len = %d, want capped at %d", l.Len(), Cap)
	}
	errs := l.Errors()
	if errs[0].Time != uint64(Cap+9) {
		t.Fatalf("newest entry = %+v, want Time=%d", errs[0], Cap+9)
	}
	oldestRetained := errs[len(errs)-1]
	if oldestRetained.Time != 10 {
		t.Fatalf("oldest retained entry = %+v, want Time=10 (first 10 overwritten)", oldestRetained)
	}
}

func TestLenBeforeFull(t *testing.T) {
	l := New()
	l.Push(1, 0, 0, 0, IOErrNone)
	l.Push(2, 0, 0, 0, IOErrNone)
	if l.Len() != 2 {
		t.Fatalf("Len = %d, want 2", l.Len())
	}
}


