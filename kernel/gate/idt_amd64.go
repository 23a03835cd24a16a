package gate

import (
	"unsafe"

	"github.com/Amjad50/OS/kernel/cpu"
)

// gateDescriptor is a single 16-byte IDT entry. The 64-bit handler address
// is scattered across three fields; the attribute byte selects the gate
// type, privilege level and present bit.
type gateDescriptor struct {
	offsetLow  uint16
	selector   uint16
	ist        uint8
	attributes uint8
	offsetMid  uint16
	offsetHigh uint32
	reserved   uint32
}

// gateAttrInterrupt marks a present, DPL0, 64-bit interrupt gate.
// Interrupt gates clear IF on entry so handlers never nest unless they
// opt in by re-enabling interrupts themselves.
const gateAttrInterrupt = uint8(0x8e)

var (
	idt [vectorCount]gateDescriptor

	// idtDescriptor is the packed limit+base pseudo-descriptor handed to
	// lidt. A struct cannot be used here as Go would insert padding
	// between the 16-bit limit and the 64-bit base.
	idtDescriptor [10]byte

	// loadIDTFn is mocked by tests.
	loadIDTFn = cpu.LoadIDT
)

// newGateDescriptor encodes an interrupt gate that transfers control to
// handlerAddr within the supplied code segment.
func newGateDescriptor(handlerAddr uintptr, selector uint16) gateDescriptor {
	return gateDescriptor{
		offsetLow:  uint16(handlerAddr),
		selector:   selector,
		attributes: gateAttrInterrupt,
		offsetMid:  uint16(handlerAddr >> 16),
		offsetHigh: uint32(handlerAddr >> 32),
	}
}

// Init populates the IDT with one interrupt gate per vector, each pointing
// at the matching entry in the vector table exported by the interrupt entry
// assembly, and loads it into the CPU. Interrupts remain disabled; enabling
// them once handlers are registered is the caller's decision.
func Init() {
	table := (*[vectorCount]uintptr)(unsafe.Pointer(vectorTableAddr()))

	for i := range idt {
		idt[i] = newGateDescriptor(table[i], cpu.SelectorKernelCode)
	}

	limit := uint16(unsafe.Sizeof(idt) - 1)
	base := uint64(uintptr(unsafe.Pointer(&idt[0])))

	idtDescriptor[0] = byte(limit)
	idtDescriptor[1] = byte(limit >> 8)
	for i := 0; i < 8; i++ {
		idtDescriptor[2+i] = byte(base >> (8 * i))
	}

	loadIDTFn(uintptr(unsafe.Pointer(&idtDescriptor[0])))
}
