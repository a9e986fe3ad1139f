package vm

import "testing"

func assemblePushIO() []byte {
	// push 1; push 2; io 2; <loop: jmp loop>  (idles once resumed, like a
	// brain waiting on its next instruction — running off the end of code
	// is a FAULT_CODE condition, not a clean stop)
	code := []byte{}
	code = append(code, byte(OpPush))
	code = append(code, wordBytes(1)...)
	code = append(code, byte(OpPush))
	code = append(code, wordBytes(2)...)
	code = append(code, byte(OpIO), 2)

	loop := uint32(len(code))
	code = append(code, byte(OpJmp))
	code = append(code, ip24Bytes(loop)...)
	return code
}

func ip24Bytes(ip uint32) []byte {
	return []byte{byte(ip >> 16), byte(ip >> 8), byte(ip)}
}

func wordBytes(w uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(w)
		w >>= 8
	}
	return b
}

func TestScenarioS5VMRoundTripWithIO(t *testing.T) {
	v := New(32, 100)
	code := assemblePushIO()

	exit := v.Exec(1, code)
	if exit.Kind != ExitIO {
		t.Fatalf("exit kind = %v, want ExitIO", exit.Kind)
	}
	if v.Flags&FlagIO == 0 {
		t.Fatalf("FlagIO not set")
	}
	if v.IO != 2 {
		t.Fatalf("v.IO = %d, want 2", v.IO)
	}
	if v.SP != 2 {
		t.Fatalf("sp = %d, want 2", v.SP)
	}

	words := v.DrainIO()
	if len(words) != 2 || words[0] != 2 || words[1] != 1 {
		t.Fatalf("DrainIO = %v, want [2 1]", words)
	}

	if err := v.FillIO([]Word{42}); err != nil {
		t.Fatal(err)
	}

	exit = v.Exec(1, code)
	if exit.Kind != ExitOk {
		t.Fatalf("unexpected exit after resume: %v", exit.Kind)
	}
	if v.SP != 1 {
		t.Fatalf("final sp = %d, want 1", v.SP)
	}
	if v.Stack[0] != 42 {
		t.Fatalf("final stack[0] = %d, want 42", v.Stack[0])
	}
}

func TestStackOverflowFaults(t *testing.T) {
	v := New(1, 10)
	code := []byte{}
	code = append(code, byte(OpPush))
	code = append(code, wordBytes(1)...)
	code = append(code, byte(OpPush))
	code = append(code, wordBytes(2)...)

	exit := v.Exec(1, code)
	if exit.Kind != ExitFault || exit.Flt != FlagFaultStack {
		t.Fatalf("exit = %+v, want stack fault", exit)
	}
	if v.SP != 1 || v.Stack[0] != 1 {
		t.Fatalf("prior stack contents not preserved: sp=%d stack=%v", v.SP, v.Stack)
	}
	if !v.Flags.Faulted() {
		t.Fatalf("VM not marked faulted")
	}

	// A faulted VM stays faulted until Reset.
	exit2 := v.Exec(1, code)
	if exit2.Kind != ExitFault {
		t.Fatalf("faulted VM executed further opcodes")
	}
	v.Reset()
	if v.Flags.Faulted() || v.SP != 0 {
		t.Fatalf("Reset did not clear fault/stack")
	}
}

func TestDivideByZeroFaultsMath(t *testing.T) {
	v := New(8, 10)
	code := []byte{
		byte(OpPush),
	}
	code = append(code, wordBytes(10)...)
	code = append(code, byte(OpPush))
	code = append(code, wordBytes(0)...)
	code = append(code, byte(OpDiv))

	exit := v.Exec(1, code)
	if exit.Kind != ExitFault || exit.Flt != FlagFaultMath {
		t.Fatalf("exit = %+v, want math fault", exit)
	}
}

func TestUnknownOpcodeFaultsCode(t *testing.T) {
	v := New(8, 10)
	code := []byte{0xFF}
	exit := v.Exec(1, code)
	if exit.Kind != ExitFault || exit.Flt != FlagFaultCode {
		t.Fatalf("exit = %+v, want code fault", exit)
	}
}

func TestCrossModuleCallPausesAndResumes(t *testing.T) {
	v := New(8, 100)
	// call into module 2 at ip 0
	code := []byte{byte(OpCall), 0, 0, 0, 2, 0, 0, 0}

	exit := v.Exec(1, code)
	if exit.Kind != ExitCall || exit.Mod != 2 {
		t.Fatalf("exit = %+v, want ExitCall{2}", exit)
	}

	// call() already pushed the packed return address before pausing.
	if v.SP != 1 {
		t.Fatalf("call did not push return address, sp=%d", v.SP)
	}

	// host now loads module 2's code and resumes at v.IP (0): a lone `ret`
	// pops the return address and hands control back to module 1.
	mod2Code := []byte{byte(OpRet)}
	exit = v.Exec(2, mod2Code)
	if exit.Kind != ExitLoad || exit.Mod != 1 {
		t.Fatalf("exit = %+v, want ExitLoad{1}", exit)
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	v := New(8, 100)
	code := []byte{
		byte(OpPush),
	}
	code = append(code, wordBytes(0x1111)...)
	code = append(code, byte(OpPush))
	code = append(code, wordBytes(0x2222)...)
	code = append(code, byte(OpPack))
	code = append(code, byte(OpUnpack))
	// idle loop: running off the end of code would raise FAULT_CODE
	loop := uint32(len(code))
	code = append(code, byte(OpJmp))
	code = append(code, ip24Bytes(loop)...)

	exit := v.Exec(1, code)
	if exit.Kind != ExitOk {
		t.Fatalf("exit = %+v, want ExitOk", exit)
	}
	if v.SP != 2 || v.Stack[0] != 0x1111 || v.Stack[1] != 0x2222 {
		t.Fatalf("pack/unpack round trip mismatch: %v", v.Stack[:v.SP])
	}
}


