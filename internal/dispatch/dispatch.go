// Package dispatch turns an inbound protocol.Cmd into the world action it
// names (spec.md §4.8): CmdIO reaches an active item's IO handler, CmdMod
// resolves a published module, CmdScan probes a chunk's energy state. It
// sits above both internal/world and internal/protocol rather than inside
// either, so the wire format stays free of simulation types and the
// simulation stays free of wire types.
package dispatch

import (
	"fmt"

	"legion/internal/active"
	"legion/internal/mod"
	"legion/internal/protocol"
	"legion/internal/world"
)

// Execute runs cmd against w on behalf of user, returning a response word
// list (empty for commands with no reply payload, e.g. a successful
// CmdIO). The args convention for each CmdKind mirrors the layout
// world_cmd_io/world_cmd_scan pack in the original:
//
//	CmdIO:   [coord, io, dstType, dstSeq, arg0, arg1, ...]
//	CmdMod:  [major]
//	CmdScan: [coord]
func Execute(w *world.World, user world.UserID, cmd protocol.Cmd) ([]uint64, error) {
	switch cmd.Kind {
	case protocol.CmdIO:
		return nil, executeIO(w, cmd.Args)
	case protocol.CmdMod:
		return executeMod(w, cmd.Args)
	case protocol.CmdScan:
		return executeScan(w, cmd.Args)
	case protocol.CmdNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("dispatch: unknown cmd kind %d", cmd.Kind)
	}
}

func executeIO(w *world.World, args []uint64) error {
	if len(args) < 4 {
		return fmt.Errorf("dispatch: CmdIO needs at least 4 args, got %d", len(args))
	}
	coord := world.FromU64(args[0])
	c := w.Chunk(coord)
	if c == nil {
		return fmt.Errorf("dispatch: no chunk at %#x", args[0])
	}
	dst := active.ID{Type: active.Type(args[2]), Seq: uint32(args[3])}
	if !c.Active.IO(args[0], uint8(args[1]), active.ID{}, dst, args[4:]) {
		return fmt.Errorf("dispatch: %s has no IO handler", dst)
	}
	return nil
}

func executeMod(w *world.World, args []uint64) ([]uint64, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("dispatch: CmdMod needs 1 arg, got %d", len(args))
	}
	m, err := w.Mods().Latest(mod.Major(args[0]))
	if err != nil {
		return nil, err
	}
	return []uint64{uint64(m.ID.Major), uint64(m.ID.Version)}, nil
}

func executeScan(w *world.World, args []uint64) ([]uint64, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("dispatch: CmdScan needs 1 arg, got %d", len(args))
	}
	coord := world.FromU64(args[0])
	c := w.Chunk(coord)
	if c == nil {
		return []uint64{0}, nil
	}
	return []uint64{1, uint64(c.Energy.Produced), uint64(c.Energy.Consumed)}, nil
}
