// Package gamelog implements the per-world ring buffer of simulation log
// lines described in spec.md, grounded on
// _examples/original_source/src/game/log.c: a fixed-capacity ring that
// overwrites its oldest entry, iterated newest-first, surfacing only
// entries that carry a nonzero error code.
package gamelog

// Cap is the ring's fixed capacity (log_cap in the original).
const Cap = 256

// IOErr identifies why an io() call failed, or IOErrNone on success.
type IOErr uint8

// IOErrNone marks a successful io() call; log_next skips these.
const IOErrNone IOErr = 0

// IOErrArrival marks a failed lane-arrival dispatch (spec.md §4.7): the
// pill bay was full, no item was listening on the target channel, or the
// arriving active item failed its tech gate.
const IOErrArrival IOErr = 1

// Entry is one log line (struct logi).
type Entry struct {
	Time  uint64
	Star  uint64 // packed coordinate
	ID    uint64 // active.ID, packed
	IO    uint8
	Err   IOErr
}

// Log is the fixed-size ring buffer of the most recent Cap entries.
type Log struct {
	items [Cap]Entry
	it    uint64
}

// New constructs an empty log.
func New() *Log {
	return &Log{}
}

// Push records one entry, overwriting the oldest slot once the ring is
// full (log_push).
func (l *Log) Push(time, star, id uint64, io uint8, err IOErr) {
	l.items[l.it%Cap] = Entry{Time: time, Star: star, ID: id, IO: io, Err: err}
	l.it++
}

// Errors returns every currently-retained entry whose Err is non-zero, in
// newest-to-oldest order (log_next's iteration, collected instead of
// exposed as a cursor since Go callers prefer ranging over a slice).
func (l *Log) Errors() []Entry {
	n := Cap
	if l.it < Cap {
		n = int(l.it)
	}

	out := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		idx := (int(l.it) - 1 - i + Cap) % Cap
		if l.items[idx].Err != IOErrNone {
			out = append(out, l.items[idx])
		}
	}
	return out
}

// Len returns how many entries the ring currently holds (capped at Cap).
func (l *Log) Len() int {
	if l.it < Cap {
		return int(l.it)
	}
	return Cap
}

// Snapshot returns every retained entry oldest-to-newest plus the push
// counter, enough for Restore to reconstruct the ring exactly (including
// which slot the next Push will land in) rather than just the
// error-filtered view Errors exposes.
func (l *Log) Snapshot() (entries []Entry, pushed uint64) {
	n := l.Len()
	entries = make([]Entry, n)
	start := int(l.it) - n
	for i := 0; i < n; i++ {
		entries[i] = l.items[(start+i)%Cap]
	}
	return entries, l.it
}

// Restore rebuilds a Log from a prior Snapshot.
func Restore(entries []Entry, pushed uint64) *Log {
	l := New()
	l.it = pushed
	start := int(pushed) - len(entries)
	for i, e := range entries {
		l.items[(start+i)%Cap] = e
	}
	return l
}
