// Package mod implements Legion's compiled-module registry: modules are
// opaque byte buffers with an index (the compiler front-end that produces
// them is out of scope — see spec.md §1). A module is addressed by
// (major, version); publishing a new version never mutates or deletes a
// prior one, it only shadows it for `mods_latest`.
package mod

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Major identifies a named module across all of its published versions.
type Major uint32

// Version is the monotonically increasing revision of a Major.
type Version uint32

// ID packs (major, version) the way spec.md's §3 Module type describes:
// "Id is (major:16, version:16)". We use the wider uint32 halves internally
// (Go gives us the room C's packed struct didn't) but preserve the
// (major, version) decomposition and its invariants.
type ID struct {
	Major   Major
	Version Version
}

func (id ID) String() string { return fmt.Sprintf("%d.v%d", id.Major, id.Version) }

// LineIndexEntry maps a source (row, col, len) span to the compiled byte
// offset range it produced, and back. Clients use this to highlight source
// for a fault, or resolve a faulted ip to a source location.
type LineIndexEntry struct {
	Row, Col int
	Len      int
	Pos      uint32 // byte offset into Code
	IP       uint32 // bytecode instruction pointer
}

// LineIndex resolves between source spans and compiled offsets.
type LineIndex struct {
	entries []LineIndexEntry
}

// NewLineIndex builds a LineIndex from entries sorted by Pos ascending; the
// compiler front-end is responsible for producing them in that order.
func NewLineIndex(entries []LineIndexEntry) *LineIndex {
	return &LineIndex{entries: entries}
}

// ByteOffset resolves a source (row, col) to the byte offset of the
// compiled instruction it produced, or false if no entry covers it.
func (li *LineIndex) ByteOffset(row, col int) (uint32, bool) {
	for _, e := range li.entries {
		if e.Row == row && col >= e.Col && col < e.Col+e.Len {
			return e.Pos, true
		}
	}
	return 0, false
}

// Source resolves an instruction pointer back to the (row, col, len) source
// span that produced it, or false if ip falls outside any recorded entry.
func (li *LineIndex) Source(ip uint32) (LineIndexEntry, bool) {
	for _, e := range li.entries {
		if e.IP == ip {
			return e, true
		}
	}
	return LineIndexEntry{}, false
}

// CompileError is a single compiler diagnostic attached to a Mod.
type CompileError struct {
	Pos     uint32
	Len     uint8
	Message string
}

// Mod is a single compiled, versioned module: an opaque bytecode buffer plus
// its source, public entry points, compile errors and line index.
type Mod struct {
	ID       ID
	Code     []byte
	Src      string
	Public   map[uint64]uint32 // exported symbol key -> entry ip
	Errors   []CompileError
	Index    *LineIndex
	SrcHash  uint64
}

// ErrUnknownPublicEntry is returned by Public lookups that miss.
var ErrUnknownPublicEntry = errors.New("mod: unknown public entry")

// PublicEntry resolves an exported symbol key to its instruction pointer.
func (m *Mod) PublicEntry(key uint64) (uint32, error) {
	ip, ok := m.Public[key]
	if !ok {
		return 0, ErrUnknownPublicEntry
	}
	return ip, nil
}

// contentHash computes the stable hash used to detect a no-op republish:
// two compiles of identical source to identical bytecode must hash equal
// regardless of when they ran.
func contentHash(code []byte, src string) uint64 {
	h := xxhash.New()
	_, _ = h.Write(code)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(src))
	return h.Sum64()
}

// New constructs a Mod with id.Version left unset (0); the registry assigns
// the version on Publish.
func New(code []byte, src string, public map[uint64]uint32, errs []CompileError, idx *LineIndex) *Mod {
	return &Mod{
		Code:    code,
		Src:     src,
		Public:  public,
		Errors:  errs,
		Index:   idx,
		SrcHash: contentHash(code, src),
	}
}

// Registry holds every published module, keyed by (major, version), plus
// the symbol <-> major binding established at registration time.
type Registry struct {
	byID    map[ID]*Mod
	latest  map[Major]Version
	names   map[Major]string
	byName  map[string]Major
	nextMaj Major
}

// NewRegistry returns an empty module registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:    make(map[ID]*Mod),
		latest:  make(map[Major]Version),
		names:   make(map[Major]string),
		byName:  make(map[string]Major),
		nextMaj: 1,
	}
}

var (
	// ErrNameTaken reports a name already bound to a different Major.
	// Register does not return it: registering a known name hands back
	// that name's existing Major.
	ErrNameTaken = errors.New("mod: name already registered")
	// ErrUnknownMajor is returned by operations addressing a Major that was
	// never registered.
	ErrUnknownMajor = errors.New("mod: unknown major")
	// ErrNoVersions is returned by Latest for a Major with no published
	// versions yet.
	ErrNoVersions = errors.New("mod: no published versions")
	// ErrUnchangedContent is returned by Publish when the proposed module's
	// content hash matches the current latest version's — publishing would
	// be a no-op, so it is refused rather than silently wasting a version.
	ErrUnchangedContent = errors.New("mod: content identical to latest version")
)

// Register mints a new Major for name and returns it. Registering the same
// name twice returns the existing Major rather than erroring, matching
// mods_register's idempotence on the symbol.
func (r *Registry) Register(name string) (Major, error) {
	if maj, ok := r.byName[name]; ok {
		return maj, nil
	}
	maj := r.nextMaj
	r.nextMaj++
	r.names[maj] = name
	r.byName[name] = maj
	return maj, nil
}

// Find resolves a registered module name back to its Major.
func (r *Registry) Find(name string) (Major, bool) {
	maj, ok := r.byName[name]
	return maj, ok
}

// Name resolves a Major back to the name it was registered under.
func (r *Registry) Name(maj Major) (string, bool) {
	n, ok := r.names[maj]
	return n, ok
}

// Publish appends m as the next version under maj. It refuses to store a
// version whose content hash matches the current latest version.
func (r *Registry) Publish(maj Major, m *Mod) (ID, error) {
	if _, ok := r.names[maj]; !ok {
		return ID{}, ErrUnknownMajor
	}
	if cur, ok := r.latest[maj]; ok {
		if existing := r.byID[ID{Major: maj, Version: cur}]; existing != nil && existing.SrcHash == m.SrcHash {
			return ID{}, ErrUnchangedContent
		}
	}
	next := r.latest[maj] + 1
	id := ID{Major: maj, Version: next}
	m.ID = id
	r.byID[id] = m
	r.latest[maj] = next
	return id, nil
}

// Get resolves a fully-qualified module id.
func (r *Registry) Get(id ID) (*Mod, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// Latest returns the highest published version under maj.
func (r *Registry) Latest(maj Major) (*Mod, error) {
	v, ok := r.latest[maj]
	if !ok {
		return nil, ErrNoVersions
	}
	return r.byID[ID{Major: maj, Version: v}], nil
}

// Item is one row of a user-scoped module listing.
type Item struct {
	Major   Major
	Version Version
	Name    string
}

// List returns every (major, latest-version, name) triple, sorted by major.
// The caller (protocol layer) is responsible for filtering by a user's
// access set before transmission.
func (r *Registry) List() []Item {
	out := make([]Item, 0, len(r.latest))
	for maj, ver := range r.latest {
		out = append(out, Item{Major: maj, Version: ver, Name: r.names[maj]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Major < out[j].Major })
	return out
}

// Parse accepts either "<major>" or "<major> v<version>" (spec.md §4.2) and
// resolves it to a concrete ID, defaulting to the latest version when none
// is given.
func (r *Registry) Parse(s string) (ID, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 || len(fields) > 2 {
		return ID{}, fmt.Errorf("mod: malformed reference %q", s)
	}
	majN, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return ID{}, fmt.Errorf("mod: malformed major %q: %w", fields[0], err)
	}
	maj := Major(majN)
	if _, ok := r.names[maj]; !ok {
		return ID{}, ErrUnknownMajor
	}

	if len(fields) == 1 {
		v, ok := r.latest[maj]
		if !ok {
			return ID{}, ErrNoVersions
		}
		return ID{Major: maj, Version: v}, nil
	}

	verStr := strings.TrimPrefix(fields[1], "v")
	verN, err := strconv.ParseUint(verStr, 10, 32)
	if err != nil {
		return ID{}, fmt.Errorf("mod: malformed version %q: %w", fields[1], err)
	}
	id := ID{Major: maj, Version: Version(verN)}
	if _, ok := r.byID[id]; !ok {
		return ID{}, fmt.Errorf("mod: unknown version %s", id)
	}
	return id, nil
}


