package vmm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Amjad50/OS/kernel/cpu"
	"github.com/Amjad50/OS/kernel/gate"
	"github.com/Amjad50/OS/kernel/kfmt"
)

func mockFaultEnv(t *testing.T, faultAddr uint64) (*bytes.Buffer, *int) {
	var (
		buf        bytes.Buffer
		panicCount int
	)

	readCR2Fn = func() uint64 { return faultAddr }
	panicFn = func(interface{}) { panicCount++ }
	kfmt.SetOutputSink(&buf)

	t.Cleanup(func() {
		readCR2Fn = cpu.ReadCR2
		panicFn = kfmt.Panic
		kfmt.SetOutputSink(nil)
	})

	return &buf, &panicCount
}

func TestPageFaultHandler(t *testing.T) {
	specs := []struct {
		errCode uint64
		exp     string
	}{
		{0, "page not present"},
		{pfPresent | pfWrite, "write to read-only page"},
		{pfRsvd, "reserved bit set in page table entry"},
		{pfPresent | pfIFetch, "instruction fetch from non-executable page"},
		{pfPresent, "protection violation"},
		{pfUser, "fault occurred in user mode"},
	}

	for specIndex, spec := range specs {
		buf, panicCount := mockFaultEnv(t, 0xdeadc0de)

		pageFaultHandler(&gate.Registers{
			Vector:    uint64(gate.PageFaultException),
			ErrorCode: spec.errCode,
		})

		if *panicCount != 1 {
			t.Errorf("[spec %d] expected the handler to panic", specIndex)
		}

		out := buf.String()
		if !strings.Contains(out, "page fault while accessing address 0x00000000deadc0de") {
			t.Errorf("[spec %d] expected the faulting address in the output; got:\n%s", specIndex, out)
		}
		if !strings.Contains(out, spec.exp) {
			t.Errorf("[spec %d] expected %q in the output; got:\n%s", specIndex, spec.exp, out)
		}
	}
}

func TestGeneralProtectionFaultHandler(t *testing.T) {
	buf, panicCount := mockFaultEnv(t, 0)

	generalProtectionFaultHandler(&gate.Registers{
		Vector:    uint64(gate.GPFException),
		ErrorCode: 0x10,
	})

	if *panicCount != 1 {
		t.Fatal("expected the handler to panic")
	}
	if !strings.Contains(buf.String(), "general protection fault (segment selector 0x10)") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestDoubleFaultHandler(t *testing.T) {
	buf, panicCount := mockFaultEnv(t, 0)

	doubleFaultHandler(&gate.Registers{Vector: uint64(gate.DoubleFault)})

	if *panicCount != 1 {
		t.Fatal("expected the handler to panic")
	}
	if !strings.Contains(buf.String(), "double fault") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}
