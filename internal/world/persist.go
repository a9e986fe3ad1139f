package world

import (
	"io"

	"legion/internal/active"
	"legion/internal/atoms"
	"legion/internal/chunk"
	"legion/internal/gamelog"
	"legion/internal/lanes"
	"legion/internal/mod"
	"legion/internal/pills"
	"legion/internal/save"
	"legion/internal/tech"
	"legion/internal/users"
)

// Save writes a complete frame of w to dst: atoms, mods, lanes, every
// chunk's star rating/energy/active occupancy/docked pills, per-user tech,
// and the game log — the record testable invariant 7 (load(save(W))≡W)
// names (spec.md §4.9). Load's typeRegistration supplies the active-item
// Configs each restored chunk needs; since no concrete type is registered anywhere in
// this tree yet (see DESIGN.md's internal/active entry), callers that
// haven't registered any types will still round-trip everything except
// active-item occupancy, which Load silently skips for unknown types.
func (w *World) Save(dst io.Writer) error {
	w.mu.RLock()
	now := w.now
	homes := make(map[UserID]Coord, len(w.homes))
	for u, c := range w.homes {
		homes[u] = c
	}
	techs := make(map[UserID]*tech.Known, len(w.tech))
	for u, k := range w.tech {
		techs[u] = k
	}
	w.mu.RUnlock()

	// Everything below reaches the shared registries and w.ChunkCoords /
	// w.Chunk, each of which takes its own lock per call — held only for
	// the homes/tech map copy above to avoid a same-goroutine RLock
	// recursion (sync.RWMutex is not safe to re-enter if a writer queues
	// in between the two acquisitions).
	sw := save.NewWriter(dst)
	sw.WriteMagic(save.MagicWorld)
	sw.WriteUint64(uint64(now))

	saveAtoms(sw, w.atoms)
	saveMods(sw, w.mods)
	saveLanes(sw, w.lanes)
	saveTech(sw, homes, techs)
	saveLog(sw, w.log)
	saveChunks(sw, w)

	return sw.Err()
}

// Load rebuilds a World from a frame written by Save. typeRegistration is
// called once with each restored chunk's fresh *active.Registry before its
// occupancy is replayed, so the caller can Register every concrete type it
// knows about first — mirroring how a real deployment would register types
// once at startup, ahead of any Load call.
func Load(src io.Reader, workersPerChunk uint32, typeRegistration func(*active.Registry)) (*World, error) {
	sr := save.NewReader(src)
	sr.ReadMagic(save.MagicWorld)
	now := Tick(sr.ReadUint64())

	atomsTable := loadAtoms(sr)
	mods := loadMods(sr)
	lns := loadLanes(sr)
	homes, techs := loadTech(sr)
	log := loadLog(sr)

	w := &World{
		chunks: make(map[Coord]*chunk.Chunk),
		stars:  make(map[Coord]*star),
		lanes:  lns,
		atoms:  atomsTable,
		mods:   mods,
		homes:  homes,
		tech:   techs,
		log:    log,
		// Accounts are not part of the save frame yet (see DESIGN.md's
		// internal/users entry): a restored world starts with a fresh
		// registry rather than round-tripping tokens, matching an admin
		// reissuing credentials after restoring from a snapshot.
		users:           users.NewRegistry(),
		now:             now,
		workersPerChunk: workersPerChunk,
	}
	if err := loadChunks(sr, w, typeRegistration); err != nil {
		return nil, err
	}
	if err := sr.Err(); err != nil {
		return nil, err
	}
	return w, nil
}

func writeString(sw *save.Writer, s string) {
	b := []byte(s)
	sw.WriteUint64(uint64(len(b)))
	sw.WriteBytes(b)
}

func readString(sr *save.Reader) string {
	n := sr.ReadUint64()
	return string(sr.ReadBytes(int(n)))
}

func writeU64Slice(sw *save.Writer, vs []uint64) {
	sw.WriteUint64(uint64(len(vs)))
	for _, v := range vs {
		sw.WriteUint64(v)
	}
}

func readU64Slice(sr *save.Reader) []uint64 {
	n := int(sr.ReadUint64())
	out := make([]uint64, n)
	for i := range out {
		out[i] = sr.ReadUint64()
	}
	return out
}

func saveAtoms(sw *save.Writer, t *atoms.Table) {
	sw.WriteMagic(save.MagicAtoms)
	entries := t.All()
	sw.WriteUint64(uint64(len(entries)))
	for _, e := range entries {
		sw.WriteUint64(uint64(e.ID))
		writeString(sw, e.Symbol)
	}
}

func loadAtoms(sr *save.Reader) *atoms.Table {
	sr.ReadMagic(save.MagicAtoms)
	n := int(sr.ReadUint64())
	entries := make([]atoms.Entry, n)
	for i := range entries {
		entries[i] = atoms.Entry{ID: atoms.Word(sr.ReadUint64()), Symbol: readString(sr)}
	}
	return atoms.Load(entries)
}

func saveMods(sw *save.Writer, r *mod.Registry) {
	sw.WriteMagic(save.MagicMod)
	snaps := r.Snapshot()
	sw.WriteUint64(uint64(len(snaps)))
	for _, s := range snaps {
		writeString(sw, s.Name)
		sw.WriteUint64(uint64(len(s.Versions)))
		for _, m := range s.Versions {
			writeModRecord(sw, m)
		}
	}
}

func writeModRecord(sw *save.Writer, m *mod.Mod) {
	sw.WriteUint64(uint64(len(m.Code)))
	sw.WriteBytes(m.Code)
	writeString(sw, m.Src)

	sw.WriteUint64(uint64(len(m.Public)))
	for key, ip := range m.Public {
		sw.WriteUint64(key)
		sw.WriteUint64(uint64(ip))
	}

	sw.WriteUint64(uint64(len(m.Errors)))
	for _, e := range m.Errors {
		sw.WriteUint64(uint64(e.Pos))
		sw.WriteUint64(uint64(e.Len))
		writeString(sw, e.Message)
	}

	var idxEntries []mod.LineIndexEntry
	if m.Index != nil {
		idxEntries = m.Index.Entries()
	}
	sw.WriteUint64(uint64(len(idxEntries)))
	for _, e := range idxEntries {
		sw.WriteUint64(uint64(e.Row))
		sw.WriteUint64(uint64(e.Col))
		sw.WriteUint64(uint64(e.Len))
		sw.WriteUint64(uint64(e.Pos))
		sw.WriteUint64(uint64(e.IP))
	}
}

func readModRecord(sr *save.Reader) *mod.Mod {
	code := sr.ReadBytes(int(sr.ReadUint64()))
	src := readString(sr)

	publicN := int(sr.ReadUint64())
	public := make(map[uint64]uint32, publicN)
	for i := 0; i < publicN; i++ {
		key := sr.ReadUint64()
		ip := uint32(sr.ReadUint64())
		public[key] = ip
	}

	errN := int(sr.ReadUint64())
	errs := make([]mod.CompileError, errN)
	for i := range errs {
		errs[i] = mod.CompileError{
			Pos:     uint32(sr.ReadUint64()),
			Len:     uint8(sr.ReadUint64()),
			Message: readString(sr),
		}
	}

	idxN := int(sr.ReadUint64())
	var idx *mod.LineIndex
	if idxN > 0 {
		entries := make([]mod.LineIndexEntry, idxN)
		for i := range entries {
			entries[i] = mod.LineIndexEntry{
				Row: int(sr.ReadUint64()),
				Col: int(sr.ReadUint64()),
				Len: int(sr.ReadUint64()),
				Pos: uint32(sr.ReadUint64()),
				IP:  uint32(sr.ReadUint64()),
			}
		}
		idx = mod.NewLineIndex(entries)
	}

	return mod.New(code, src, public, errs, idx)
}

func loadMods(sr *save.Reader) *mod.Registry {
	sr.ReadMagic(save.MagicMod)
	n := int(sr.ReadUint64())
	snaps := make([]mod.Snapshot, n)
	for i := range snaps {
		name := readString(sr)
		vn := int(sr.ReadUint64())
		versions := make([]*mod.Mod, vn)
		for j := range versions {
			versions[j] = readModRecord(sr)
		}
		snaps[i] = mod.Snapshot{Name: name, Versions: versions}
	}
	return mod.Restore(snaps)
}

func saveLanes(sw *save.Writer, ls *lanes.Lanes) {
	sw.WriteMagic(save.MagicLanes)
	entries := ls.Snapshot()
	sw.WriteUint64(uint64(len(entries)))
	for _, e := range entries {
		sw.WriteUint64(uint64(e.Src))
		sw.WriteUint64(uint64(e.Dst))
		sw.WriteUint64(uint64(e.Arrive))
		sw.WriteUint64(e.Payload.Owner)
		sw.WriteUint64(uint64(e.Payload.Kind))
		sw.WriteUint64(uint64(e.Payload.Item))
		writeU64Slice(sw, e.Payload.Data)
	}
}

func loadLanes(sr *save.Reader) *lanes.Lanes {
	sr.ReadMagic(save.MagicLanes)
	n := int(sr.ReadUint64())
	entries := make([]lanes.Entry, n)
	for i := range entries {
		src := lanes.Coord(sr.ReadUint64())
		dst := lanes.Coord(sr.ReadUint64())
		arrive := lanes.Tick(sr.ReadUint64())
		owner := sr.ReadUint64()
		kind := lanes.Kind(sr.ReadUint64())
		item := lanes.Item(sr.ReadUint64())
		data := readU64Slice(sr)
		entries[i] = lanes.Entry{
			Src: src, Dst: dst, Arrive: arrive,
			Payload: lanes.Payload{Owner: owner, Kind: kind, Item: item, Data: data},
		}
	}
	return lanes.Restore(entries)
}

func saveTech(sw *save.Writer, homes map[UserID]Coord, techs map[UserID]*tech.Known) {
	sw.WriteMagic(save.MagicTech)
	sw.WriteUint64(uint64(len(homes)))
	for user, coord := range homes {
		sw.WriteUint64(uint64(user))
		sw.WriteUint64(coord.ToU64())
	}
	sw.WriteUint64(uint64(len(techs)))
	for user, known := range techs {
		sw.WriteUint64(uint64(user))
		sw.WriteUint64(uint64(known.Bits()))
	}
}

func loadTech(sr *save.Reader) (map[UserID]Coord, map[UserID]*tech.Known) {
	sr.ReadMagic(save.MagicTech)
	homes := make(map[UserID]Coord)
	for n := int(sr.ReadUint64()); n > 0; n-- {
		user := UserID(sr.ReadUint64())
		homes[user] = FromU64(sr.ReadUint64())
	}
	techs := make(map[UserID]*tech.Known)
	for n := int(sr.ReadUint64()); n > 0; n-- {
		user := UserID(sr.ReadUint64())
		k := tech.New()
		k.Load(tech.Bits(sr.ReadUint64()))
		techs[user] = k
	}
	return homes, techs
}

func saveLog(sw *save.Writer, log *gamelog.Log) {
	sw.WriteMagic(save.MagicLog)
	entries, pushed := log.Snapshot()
	sw.WriteUint64(pushed)
	sw.WriteUint64(uint64(len(entries)))
	for _, e := range entries {
		sw.WriteUint64(e.Time)
		sw.WriteUint64(e.Star)
		sw.WriteUint64(e.ID)
		sw.WriteUint64(uint64(e.IO))
		sw.WriteUint64(uint64(e.Err))
	}
}

func loadLog(sr *save.Reader) *gamelog.Log {
	sr.ReadMagic(save.MagicLog)
	pushed := sr.ReadUint64()
	n := int(sr.ReadUint64())
	entries := make([]gamelog.Entry, n)
	for i := range entries {
		entries[i] = gamelog.Entry{
			Time: sr.ReadUint64(),
			Star: sr.ReadUint64(),
			ID:   sr.ReadUint64(),
			IO:   uint8(sr.ReadUint64()),
			Err:  gamelog.IOErr(sr.ReadUint64()),
		}
	}
	return gamelog.Restore(entries, pushed)
}

func saveChunks(sw *save.Writer, w *World) {
	sw.WriteMagic(save.MagicChunk)
	coords := w.ChunkCoords()

	w.mu.RLock()
	stars := make(map[Coord]*star, len(w.stars))
	for c, s := range w.stars {
		stars[c] = s
	}
	w.mu.RUnlock()

	sw.WriteUint64(uint64(len(coords)))
	for _, coord := range coords {
		c := w.Chunk(coord)
		st := stars[coord]

		sw.WriteUint64(coord.ToU64())
		sw.WriteUint64(uint64(st.energy))
		sw.WriteUint64(uint64(st.elemK))

		en := c.Energy
		sw.WriteUint64(uint64(en.Solar))
		sw.WriteUint64(uint64(en.Kwheel))
		sw.WriteUint64(uint64(en.Battery))
		sw.WriteUint64(en.Need)
		sw.WriteUint64(en.Produced)
		sw.WriteUint64(en.Consumed)
		sw.WriteUint64(en.Item.Burner)
		sw.WriteUint64(en.Item.Fusion.Next)
		sw.WriteUint64(en.Item.Fusion.Saved)
		sw.WriteUint64(en.Item.Fusion.Produced)
		sw.WriteUint64(en.Item.Battery.Produced)
		sw.WriteUint64(en.Item.Battery.Stored)

		occ := c.Active.Snapshot()
		sw.WriteUint64(uint64(len(occ)))
		for _, o := range occ {
			sw.WriteUint64(uint64(o.Type))
			sw.WriteUint64(uint64(o.Next))
			sw.WriteUint64(uint64(len(o.Live)))
			for _, seq := range o.Live {
				sw.WriteUint64(uint64(seq))
			}
		}

		docked := c.Pills.Snapshot()
		sw.WriteUint64(uint64(len(docked)))
		for _, d := range docked {
			sw.WriteUint64(uint64(d.Coord))
			sw.WriteUint64(uint64(d.Cargo.Item))
			sw.WriteUint64(uint64(d.Cargo.Count))
		}
	}
}

func loadChunks(sr *save.Reader, w *World, typeRegistration func(*active.Registry)) error {
	sr.ReadMagic(save.MagicChunk)
	n := int(sr.ReadUint64())
	for i := 0; i < n; i++ {
		coordU64 := sr.ReadUint64()
		coord := FromU64(coordU64)
		starEnergy := sr.ReadUint64()
		elemK := uint16(sr.ReadUint64())

		c := w.ChunkAlloc(coord, 0, starEnergy, elemK)

		c.Energy.Solar = uint8(sr.ReadUint64())
		c.Energy.Kwheel = uint8(sr.ReadUint64())
		c.Energy.Battery = uint8(sr.ReadUint64())
		c.Energy.Need = sr.ReadUint64()
		c.Energy.Produced = sr.ReadUint64()
		c.Energy.Consumed = sr.ReadUint64()
		c.Energy.Item.Burner = sr.ReadUint64()
		c.Energy.Item.Fusion.Next = sr.ReadUint64()
		c.Energy.Item.Fusion.Saved = sr.ReadUint64()
		c.Energy.Item.Fusion.Produced = sr.ReadUint64()
		c.Energy.Item.Battery.Produced = sr.ReadUint64()
		c.Energy.Item.Battery.Stored = sr.ReadUint64()

		if typeRegistration != nil {
			typeRegistration(c.Active)
		}
		occN := int(sr.ReadUint64())
		occ := make([]active.Occupancy, occN)
		for j := range occ {
			occ[j].Type = active.Type(sr.ReadUint64())
			occ[j].Next = uint32(sr.ReadUint64())
			liveN := int(sr.ReadUint64())
			occ[j].Live = make([]uint32, liveN)
			for k := range occ[j].Live {
				occ[j].Live[k] = uint32(sr.ReadUint64())
			}
		}
		c.Active.Restore(coordU64, occ)

		pillN := int(sr.ReadUint64())
		for j := 0; j < pillN; j++ {
			pillCoord := pills.Coord(sr.ReadUint64())
			item := pills.Item(sr.ReadUint64())
			count := uint32(sr.ReadUint64())
			c.Pills.Arrive(pillCoord, pills.Cargo{Item: item, Count: count})
		}
	}
	return sr.Err()
}
