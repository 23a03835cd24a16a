package cpu

var (
	cpuidFn = ID
)

// Control and mode register bits checked by the early boot code and the
// hosted test harness. They mirror the constants used by the assembly
// trampoline.
const (
	// CR0Paging is the PG bit in CR0.
	CR0Paging = uint64(1) << 31

	// CR0ProtectedMode is the PE bit in CR0.
	CR0ProtectedMode = uint64(1) << 0

	// CR4PAE is the physical address extension bit in CR4.
	CR4PAE = uint64(1) << 5

	// MSREFER is the extended feature enable register.
	MSREFER = uint32(0xc0000080)

	// EFERLongModeEnable is the LME bit in EFER.
	EFERLongModeEnable = uint64(1) << 8

	// EFERLongModeActive is the LMA bit in EFER; set by the CPU once paging
	// is enabled with LME set.
	EFERLongModeActive = uint64(1) << 10
)

// CPUID leaf/bits for the long-mode capability check. The boot trampoline
// performs the identical check before attempting the mode switch.
const (
	cpuidExtendedFeatures = uint32(0x80000001)
	cpuidEDXPae           = uint32(1) << 6
	cpuidEDXLongMode      = uint32(1) << 29
)

// EnableInterrupts enables interrupt handling.
func EnableInterrupts()

// DisableInterrupts disables interrupt handling.
func DisableInterrupts()

// Halt disables interrupts and stops instruction execution.
func Halt()

// FlushTLBEntry flushes the TLB entry for a particular virtual address.
func FlushTLBEntry(virtAddr uintptr)

// SwitchPDT sets the root page table to the given physical address and
// flushes the TLB.
func SwitchPDT(pdtPhysAddr uintptr)

// ActivePDT returns the physical address of the currently active page table
// hierarchy (the contents of CR3).
func ActivePDT() uintptr

// ReadCR0 returns the value stored in the CR0 register.
func ReadCR0() uint64

// ReadCR2 returns the value stored in the CR2 register. After a page fault,
// CR2 holds the faulting address; it is not part of the saved interrupt
// frame so fault handlers read it through this function.
func ReadCR2() uint64

// ReadCR4 returns the value stored in the CR4 register.
func ReadCR4() uint64

// ReadMSR returns the contents of the given model-specific register.
func ReadMSR(msr uint32) uint64

// WriteMSR stores value into the given model-specific register. The boot
// trampoline performs the equivalent wrmsr sequence by hand while enabling
// long mode; kernel code running after the handoff uses this primitive.
func WriteMSR(msr uint32, value uint64)

// LoadIDT loads the interrupt descriptor table register from the 10-byte
// pseudo-descriptor at descriptorAddr.
func LoadIDT(descriptorAddr uintptr)

// ID returns information about the CPU and its features. It is implemented
// as a CPUID instruction with EAX=leaf and returns the values in EAX, EBX,
// ECX and EDX.
func ID(leaf uint32) (eax, ebx, ecx, edx uint32)

// IsIntel returns true if the code is running on an Intel processor.
func IsIntel() bool {
	_, ebx, ecx, edx := cpuidFn(0)
	return ebx == 0x756e6547 && // "Genu"
		edx == 0x49656e69 && // "ineI"
		ecx == 0x6c65746e // "ntel"
}

// HasLongMode returns true if the processor supports both PAE and 64-bit
// long mode. This is the same CPUID check the boot trampoline performs
// before switching modes.
func HasLongMode() bool {
	_, _, _, edx := cpuidFn(cpuidExtendedFeatures)
	return edx&(cpuidEDXPae|cpuidEDXLongMode) == cpuidEDXPae|cpuidEDXLongMode
}

// PortWriteByte writes a uint8 value to the requested port.
func PortWriteByte(port uint16, val uint8)

// PortReadByte reads a uint8 value from the requested port.
func PortReadByte(port uint16) uint8
