package vm

import "fmt"

// DrainIO pops the number of words requested by the last OpIO/OpIOS
// (v.IO) and returns them ordered from the top of the stack downward — i.e.
// the most recently pushed word first — matching the host-drain contract
// in spec.md §4.1 ("drains the top io words from the stack"). It clears
// FlagIO. Calling it when FlagIO is not set returns nil.
func (v *VM) DrainIO() []Word {
	if v.Flags&FlagIO == 0 {
		return nil
	}
	n := int(v.IO)
	out := make([]Word, n)
	for i := 0; i < n; i++ {
		w, _ := v.pop()
		out[i] = w
	}
	v.IO = 0
	v.Flags &^= FlagIO
	return out
}

// FillIO pushes up to IOCap words back onto the stack after a drained I/O
// request, recording how many it wrote in v.IOR so a subsequent `ior`
// opcode can report it to the program.
func (v *VM) FillIO(words []Word) error {
	if len(words) > IOCap {
		return fmt.Errorf("vm: FillIO given %d words, cap is %d", len(words), IOCap)
	}
	for _, w := range words {
		if !v.push(w) {
			return fmt.Errorf("vm: FillIO overflowed the stack (cap %d)", v.Specs.StackCap)
		}
	}
	v.IOR = uint8(len(words))
	return nil
}

// StackSnapshot returns the live stack contents, bottom to top. It copies,
// so callers may not mutate the VM's internal stack through it.
func (v *VM) StackSnapshot() []Word {
	out := make([]Word, v.SP)
	copy(out, v.Stack[:v.SP])
	return out
}
