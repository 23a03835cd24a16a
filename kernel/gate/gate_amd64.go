package gate

import (
	"io"

	"github.com/Amjad50/OS/kernel"
	"github.com/Amjad50/OS/kernel/kfmt"
)

// vectorCount is the number of interrupt vectors the CPU supports and the
// number of stubs the interrupt entry assembly provides.
const vectorCount = 256

// Registers is the register snapshot the interrupt entry code builds on the
// stack before handing control to the Go side. The field order mirrors the
// save sequence exactly: segment selectors first (lowest address), then
// debug registers, general-purpose registers, the vector number and error
// code pushed by the per-vector stubs, and finally the frame the CPU itself
// pushed on interrupt delivery.
//
// A handler may mutate any general-purpose register or the return frame;
// the restore path loads the interrupted context from this snapshot.
type Registers struct {
	// Segment selectors, zero-extended to 64 bits.
	DS uint64
	ES uint64
	FS uint64
	GS uint64

	// Debug registers.
	DR0 uint64
	DR1 uint64
	DR2 uint64
	DR3 uint64
	DR6 uint64
	DR7 uint64

	RAX uint64
	RBX uint64
	RCX uint64
	RDX uint64
	RSI uint64
	RDI uint64
	RBP uint64
	R8  uint64
	R9  uint64
	R10 uint64
	R11 uint64
	R12 uint64
	R13 uint64
	R14 uint64
	R15 uint64

	// Vector is the interrupt vector number pushed by the entry stub.
	Vector uint64

	// ErrorCode holds the CPU-supplied error code for the faults that
	// provide one and 0 for every other vector.
	ErrorCode uint64

	// The return frame used by IRETQ.
	RIP    uint64
	CS     uint64
	RFlags uint64
	RSP    uint64
	SS     uint64
}

// DumpTo outputs the register contents to w.
func (r *Registers) DumpTo(w io.Writer) {
	kfmt.Fprintf(w, "RAX = %16x RBX = %16x\n", r.RAX, r.RBX)
	kfmt.Fprintf(w, "RCX = %16x RDX = %16x\n", r.RCX, r.RDX)
	kfmt.Fprintf(w, "RSI = %16x RDI = %16x\n", r.RSI, r.RDI)
	kfmt.Fprintf(w, "RBP = %16x\n", r.RBP)
	kfmt.Fprintf(w, "R8  = %16x R9  = %16x\n", r.R8, r.R9)
	kfmt.Fprintf(w, "R10 = %16x R11 = %16x\n", r.R10, r.R11)
	kfmt.Fprintf(w, "R12 = %16x R13 = %16x\n", r.R12, r.R13)
	kfmt.Fprintf(w, "R14 = %16x R15 = %16x\n", r.R14, r.R15)
	kfmt.Fprintf(w, "\n")
	kfmt.Fprintf(w, "DS  = %16x ES  = %16x\n", r.DS, r.ES)
	kfmt.Fprintf(w, "FS  = %16x GS  = %16x\n", r.FS, r.GS)
	kfmt.Fprintf(w, "DR0 = %16x DR1 = %16x\n", r.DR0, r.DR1)
	kfmt.Fprintf(w, "DR2 = %16x DR3 = %16x\n", r.DR2, r.DR3)
	kfmt.Fprintf(w, "DR6 = %16x DR7 = %16x\n", r.DR6, r.DR7)
	kfmt.Fprintf(w, "\n")
	kfmt.Fprintf(w, "RIP = %16x CS  = %16x\n", r.RIP, r.CS)
	kfmt.Fprintf(w, "RSP = %16x SS  = %16x\n", r.RSP, r.SS)
	kfmt.Fprintf(w, "RFL = %16x\n", r.RFlags)
}

// InterruptNumber describes an x86 interrupt/exception/trap slot.
type InterruptNumber uint8

const (
	// DivideByZero occurs when dividing any number by 0 using the DIV or
	// IDIV instruction.
	DivideByZero = InterruptNumber(0)

	// Debug occurs on instruction fetches or data accesses watched by the
	// debug registers and after single-step traps.
	Debug = InterruptNumber(1)

	// NMI (non-maskable-interrupt) is a hardware interrupt that indicates
	// issues with RAM or unrecoverable hardware problems.
	NMI = InterruptNumber(2)

	// Breakpoint occurs when the CPU executes an INT3 instruction.
	Breakpoint = InterruptNumber(3)

	// Overflow occurs when the INTO instruction executes with the overflow
	// flag set.
	Overflow = InterruptNumber(4)

	// BoundRangeExceeded occurs when the BOUND instruction is invoked with
	// an index out of range.
	BoundRangeExceeded = InterruptNumber(5)

	// InvalidOpcode occurs when the CPU attempts to execute an invalid or
	// undefined instruction opcode.
	InvalidOpcode = InterruptNumber(6)

	// DeviceNotAvailable occurs when the CPU attempts to execute an
	// FPU/MMX/SSE instruction while FPU support has been disabled by
	// manipulating the CR0 register.
	DeviceNotAvailable = InterruptNumber(7)

	// DoubleFault occurs when an unhandled exception occurs or when an
	// exception occurs within a running exception handler.
	DoubleFault = InterruptNumber(8)

	// InvalidTSS occurs when the TSS points to an invalid task segment
	// selector.
	InvalidTSS = InterruptNumber(10)

	// SegmentNotPresent occurs when the CPU attempts to invoke a present
	// gate with an invalid stack segment selector.
	SegmentNotPresent = InterruptNumber(11)

	// StackSegmentFault occurs when attempting to push/pop from a
	// non-canonical stack address or when the stack base/limit checks
	// fail.
	StackSegmentFault = InterruptNumber(12)

	// GPFException occurs when a general protection fault occurs.
	GPFException = InterruptNumber(13)

	// PageFaultException occurs when a page table entry is not present or
	// when a privilege and/or RW protection check fails. The faulting
	// address is not part of the saved frame; handlers must read it from
	// CR2 before executing anything that could fault again.
	PageFaultException = InterruptNumber(14)

	// FloatingPointException occurs when an x87 instruction signals a
	// pending FPU exception.
	FloatingPointException = InterruptNumber(16)

	// AlignmentCheck occurs on unaligned memory accesses when alignment
	// checking is enabled.
	AlignmentCheck = InterruptNumber(17)

	// MachineCheck occurs when the CPU detects an internal error such as
	// bad memory, bus errors or cache errors.
	MachineCheck = InterruptNumber(18)

	// SIMDFloatingPointException occurs when an unmasked SSE exception is
	// signaled.
	SIMDFloatingPointException = InterruptNumber(19)

	// VirtualizationException occurs on EPT violations converted to
	// exceptions.
	VirtualizationException = InterruptNumber(20)

	// SecurityException occurs on security-sensitive events under SVM.
	SecurityException = InterruptNumber(21)
)

// errorCodeVectors flags the vectors where the CPU itself pushes an error
// code on the stack. The entry stubs for every other vector push a zero in
// its place so all vectors share a single frame layout.
var errorCodeVectors = [vectorCount]bool{
	DoubleFault:        true,
	InvalidTSS:         true,
	SegmentNotPresent:  true,
	StackSegmentFault:  true,
	GPFException:       true,
	PageFaultException: true,
	AlignmentCheck:     true,
}

// VectorHasErrorCode returns true if the CPU supplies a real error code
// when raising the given vector.
func VectorHasErrorCode(vector InterruptNumber) bool {
	return errorCodeVectors[vector]
}

// HandlerFunc is a function that handles an interrupt. If the handler
// returns, any modifications to the supplied Registers are propagated back
// to the interrupted context.
type HandlerFunc func(*Registers)

var (
	handlers [vectorCount]HandlerFunc

	// panicFn is mocked by tests.
	panicFn = kfmt.Panic

	errUnhandledInterrupt = &kernel.Error{Module: "gate", Message: "unhandled interrupt"}
)

// HandleInterrupt registers a handler for the given interrupt number,
// replacing any previous registration.
func HandleInterrupt(vector InterruptNumber, handler HandlerFunc) {
	handlers[vector] = handler
}

// dispatch is invoked by the interrupt entry trampoline (by way of the
// rust_interrupt_handler_for_all_state thunk) with the frame the entry code
// saved. It routes the interrupt to the registered handler; vectors without
// a handler dump the frame and bring the system down.
func dispatch(regs *Registers) {
	if handler := handlers[regs.Vector&(vectorCount-1)]; handler != nil {
		handler(regs)
		return
	}

	unhandledInterrupt(regs)
}

func unhandledInterrupt(regs *Registers) {
	kfmt.Printf("\nunhandled interrupt: vector %d, error code %x\n\n", regs.Vector, regs.ErrorCode)
	regs.DumpTo(kfmt.GetOutputSink())
	panicFn(errUnhandledInterrupt)
}
