package gate

import (
	"bytes"
	"strings"
	"testing"
	"unsafe"

	"github.com/Amjad50/OS/kernel/kfmt"
)

// The entry assembly and the Registers struct must agree on the frame
// layout down to the byte; these offsets are fixed by the save sequence in
// the interrupt trampoline.
func TestRegistersLayout(t *testing.T) {
	var regs Registers

	if got := unsafe.Sizeof(regs); got != 256 {
		t.Fatalf("expected frame size 256; got %d", got)
	}

	specs := []struct {
		field     string
		offset    uintptr
		expOffset uintptr
	}{
		{"DS", unsafe.Offsetof(regs.DS), 0},
		{"ES", unsafe.Offsetof(regs.ES), 8},
		{"FS", unsafe.Offsetof(regs.FS), 16},
		{"GS", unsafe.Offsetof(regs.GS), 24},
		{"DR0", unsafe.Offsetof(regs.DR0), 32},
		{"DR7", unsafe.Offsetof(regs.DR7), 72},
		{"RAX", unsafe.Offsetof(regs.RAX), 80},
		{"RBP", unsafe.Offsetof(regs.RBP), 128},
		{"R8", unsafe.Offsetof(regs.R8), 136},
		{"R15", unsafe.Offsetof(regs.R15), 192},
		{"Vector", unsafe.Offsetof(regs.Vector), 200},
		{"ErrorCode", unsafe.Offsetof(regs.ErrorCode), 208},
		{"RIP", unsafe.Offsetof(regs.RIP), 216},
		{"CS", unsafe.Offsetof(regs.CS), 224},
		{"RFlags", unsafe.Offsetof(regs.RFlags), 232},
		{"RSP", unsafe.Offsetof(regs.RSP), 240},
		{"SS", unsafe.Offsetof(regs.SS), 248},
	}

	for _, spec := range specs {
		if spec.offset != spec.expOffset {
			t.Errorf("%s: expected offset %d; got %d", spec.field, spec.expOffset, spec.offset)
		}
	}
}

func TestVectorHasErrorCode(t *testing.T) {
	expSet := map[InterruptNumber]bool{
		8: true, 10: true, 11: true, 12: true, 13: true, 14: true, 17: true,
	}

	for v := 0; v < vectorCount; v++ {
		vector := InterruptNumber(v)
		if exp, got := expSet[vector], VectorHasErrorCode(vector); got != exp {
			t.Errorf("vector %d: expected VectorHasErrorCode to return %t; got %t", v, exp, got)
		}
	}
}

func TestDispatchRoutesToHandler(t *testing.T) {
	defer HandleInterrupt(Breakpoint, nil)

	var gotFrame *Registers
	HandleInterrupt(Breakpoint, func(regs *Registers) {
		gotFrame = regs
		// Mutations must be visible to the caller, which is how handlers
		// alter the interrupted context.
		regs.RAX = 0xfeedface
	})

	frame := &Registers{Vector: uint64(Breakpoint), RAX: 1}
	dispatch(frame)

	if gotFrame != frame {
		t.Fatal("expected the handler to observe the dispatched frame")
	}
	if frame.RAX != 0xfeedface {
		t.Fatalf("expected handler mutation to persist; got RAX=%x", frame.RAX)
	}
}

func TestDispatchUnhandled(t *testing.T) {
	var buf bytes.Buffer
	kfmt.SetOutputSink(&buf)

	var panicked interface{}
	panicFn = func(e interface{}) {
		panicked = e
	}

	defer func() {
		panicFn = kfmt.Panic
		kfmt.SetOutputSink(nil)
	}()

	frame := &Registers{Vector: 0x30, ErrorCode: 0, RIP: 0xffffffff80001234}
	dispatch(frame)

	if panicked != errUnhandledInterrupt {
		t.Fatalf("expected unhandled interrupt panic; got %v", panicked)
	}

	out := buf.String()
	if !strings.Contains(out, "unhandled interrupt: vector 48") {
		t.Fatalf("expected the vector number in the output; got:\n%s", out)
	}
	if !strings.Contains(out, "RIP = ffffffff80001234") {
		t.Fatalf("expected a register dump in the output; got:\n%s", out)
	}
}

func TestRegistersDumpTo(t *testing.T) {
	var buf bytes.Buffer

	regs := Registers{
		RAX: 1, RBX: 2, RCX: 3, RDX: 4, RSI: 5, RDI: 6, RBP: 7,
		R8: 8, R9: 9, R10: 10, R11: 11, R12: 12, R13: 13, R14: 14, R15: 15,
		DS: 0x10, ES: 0x10, FS: 0, GS: 0,
		DR6: 0xffff0ff0, DR7: 0x400,
		Vector: 14, ErrorCode: 2,
		RIP: 16, CS: 8, RFlags: 0x202, RSP: 17, SS: 0x10,
	}
	regs.DumpTo(&buf)

	out := buf.String()
	for _, exp := range []string{
		"RAX = 0000000000000001 RBX = 0000000000000002",
		"R14 = 000000000000000e R15 = 000000000000000f",
		"DS  = 0000000000000010 ES  = 0000000000000010",
		"DR6 = 00000000ffff0ff0 DR7 = 0000000000000400",
		"RIP = 0000000000000010 CS  = 0000000000000008",
		"RFL = 0000000000000202",
	} {
		if !strings.Contains(out, exp) {
			t.Errorf("expected dump to contain %q; dump:\n%s", exp, out)
		}
	}
}
