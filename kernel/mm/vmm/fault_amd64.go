package vmm

import (
	"github.com/Amjad50/OS/kernel"
	"github.com/Amjad50/OS/kernel/cpu"
	"github.com/Amjad50/OS/kernel/gate"
	"github.com/Amjad50/OS/kernel/kfmt"
)

var (
	// the following functions are mocked by tests.
	readCR2Fn = cpu.ReadCR2
	panicFn   = kfmt.Panic

	errUnrecoverableFault = &kernel.Error{Module: "vmm", Message: "unrecoverable fault"}
)

// Page fault error code bits.
const (
	pfPresent = uint64(1) << 0
	pfWrite   = uint64(1) << 1
	pfUser    = uint64(1) << 2
	pfRsvd    = uint64(1) << 3
	pfIFetch  = uint64(1) << 4
)

// InstallFaultHandlers registers handlers for the memory-related CPU
// exceptions. Nothing is recoverable until a real memory manager exists, so
// the handlers report the fault and bring the system down.
func InstallFaultHandlers() {
	gate.HandleInterrupt(gate.PageFaultException, pageFaultHandler)
	gate.HandleInterrupt(gate.GPFException, generalProtectionFaultHandler)
	gate.HandleInterrupt(gate.DoubleFault, doubleFaultHandler)
}

func pageFaultHandler(regs *gate.Registers) {
	// CR2 holds the faulting address; read it before executing anything
	// that could fault and overwrite it.
	faultAddr := readCR2Fn()

	kfmt.Printf("\npage fault while accessing address 0x%16x\n", faultAddr)

	switch {
	case regs.ErrorCode&pfRsvd != 0:
		kfmt.Printf("reserved bit set in page table entry\n")
	case regs.ErrorCode&pfPresent == 0:
		kfmt.Printf("page not present\n")
	case regs.ErrorCode&pfWrite != 0:
		kfmt.Printf("write to read-only page\n")
	case regs.ErrorCode&pfIFetch != 0:
		kfmt.Printf("instruction fetch from non-executable page\n")
	default:
		kfmt.Printf("protection violation\n")
	}
	if regs.ErrorCode&pfUser != 0 {
		kfmt.Printf("fault occurred in user mode\n")
	}

	regs.DumpTo(kfmt.GetOutputSink())
	panicFn(errUnrecoverableFault)
}

func generalProtectionFaultHandler(regs *gate.Registers) {
	kfmt.Printf("\ngeneral protection fault (segment selector 0x%x)\n", regs.ErrorCode)
	regs.DumpTo(kfmt.GetOutputSink())
	panicFn(errUnrecoverableFault)
}

func doubleFaultHandler(regs *gate.Registers) {
	kfmt.Printf("\ndouble fault\n")
	regs.DumpTo(kfmt.GetOutputSink())
	panicFn(errUnrecoverableFault)
}
