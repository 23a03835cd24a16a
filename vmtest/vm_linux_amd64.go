package vmtest

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/Amjad50/OS/kernel/cpu"
	"github.com/Amjad50/OS/kernel/mm/vmm"
)

// Machine is a minimal single-vcpu KVM virtual machine with a flat guest
// physical memory region starting at 0.
type Machine struct {
	kvmFD  int
	vmFD   int
	vcpuFD int

	runBuf []byte

	// Mem is the guest physical memory, visible to both sides.
	Mem []byte
}

// NewMachine creates a KVM virtual machine with memSize bytes of guest
// memory. It fails with an error (rather than panicking) when KVM is not
// available so callers can skip.
func NewMachine(memSize int) (*Machine, error) {
	kvmFD, err := unix.Open("/dev/kvm", unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/kvm: %w", err)
	}

	m := &Machine{kvmFD: kvmFD, vmFD: -1, vcpuFD: -1}

	version, err := ioctl(kvmFD, kvmGetAPIVersion, 0)
	if err != nil || version != kvmAPIVersion {
		m.Close()
		return nil, fmt.Errorf("unsupported KVM API version %d (%v)", version, err)
	}

	if m.vmFD, err = ioctl(kvmFD, kvmCreateVM, 0); err != nil {
		m.Close()
		return nil, fmt.Errorf("KVM_CREATE_VM: %w", err)
	}

	if m.Mem, err = unix.Mmap(-1, 0, memSize,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_NORESERVE); err != nil {
		m.Close()
		return nil, fmt.Errorf("mmap guest memory: %w", err)
	}

	region := userMemoryRegion{
		guestPhysAddr: 0,
		memorySize:    uint64(memSize),
		userspaceAddr: uint64(uintptr(unsafe.Pointer(&m.Mem[0]))),
	}
	if err = ioctlPtr(m.vmFD, kvmSetUserMemoryRegion, unsafe.Pointer(&region)); err != nil {
		m.Close()
		return nil, fmt.Errorf("KVM_SET_USER_MEMORY_REGION: %w", err)
	}

	if m.vcpuFD, err = ioctl(m.vmFD, kvmCreateVCPU, 0); err != nil {
		m.Close()
		return nil, fmt.Errorf("KVM_CREATE_VCPU: %w", err)
	}

	mmapSize, err := ioctl(kvmFD, kvmGetVCPUMmapSize, 0)
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("KVM_GET_VCPU_MMAP_SIZE: %w", err)
	}

	if m.runBuf, err = unix.Mmap(m.vcpuFD, 0, mmapSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED); err != nil {
		m.Close()
		return nil, fmt.Errorf("mmap kvm_run: %w", err)
	}

	return m, nil
}

// Close releases all machine resources.
func (m *Machine) Close() {
	if m.runBuf != nil {
		unix.Munmap(m.runBuf)
		m.runBuf = nil
	}
	if m.vcpuFD >= 0 {
		unix.Close(m.vcpuFD)
		m.vcpuFD = -1
	}
	if m.Mem != nil {
		unix.Munmap(m.Mem)
		m.Mem = nil
	}
	if m.vmFD >= 0 {
		unix.Close(m.vmFD)
		m.vmFD = -1
	}
	if m.kvmFD >= 0 {
		unix.Close(m.kvmFD)
		m.kvmFD = -1
	}
}

// Regs returns the current general-purpose register state.
func (m *Machine) Regs() (regs, error) {
	var r regs
	err := ioctlPtr(m.vcpuFD, kvmGetRegs, unsafe.Pointer(&r))
	return r, err
}

// SetRegs updates the general-purpose register state.
func (m *Machine) SetRegs(r regs) error {
	return ioctlPtr(m.vcpuFD, kvmSetRegs, unsafe.Pointer(&r))
}

// Sregs returns the current special register state.
func (m *Machine) Sregs() (sregs, error) {
	var s sregs
	err := ioctlPtr(m.vcpuFD, kvmGetSregs, unsafe.Pointer(&s))
	return s, err
}

// SetSregs updates the special register state.
func (m *Machine) SetSregs(s sregs) error {
	return ioctlPtr(m.vcpuFD, kvmSetSregs, unsafe.Pointer(&s))
}

// Run enters the guest and returns the KVM exit reason once it leaves.
func (m *Machine) Run() (uint32, error) {
	if _, err := ioctl(m.vcpuFD, kvmRun, 0); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.runBuf[runExitReasonOffset:]), nil
}

// IOExit decodes the port IO information after a Run that returned exitIO,
// along with the first data byte the guest transferred.
func (m *Machine) IOExit() (ioExit, byte) {
	var exit ioExit
	exit.Direction = m.runBuf[runUnionOffset]
	exit.Size = m.runBuf[runUnionOffset+1]
	exit.Port = binary.LittleEndian.Uint16(m.runBuf[runUnionOffset+2:])
	exit.Count = binary.LittleEndian.Uint32(m.runBuf[runUnionOffset+4:])
	exit.DataOffset = binary.LittleEndian.Uint64(m.runBuf[runUnionOffset+8:])

	return exit, m.runBuf[exit.DataOffset]
}

// Guest physical layout used by the long-mode tests. The page table base
// matches the legacy boot layout so the numbers in test failures read like
// the real thing.
const (
	gdtBase       = uint64(0x500)
	pageTableBase = uint64(0x1000)
	codeBase      = uint64(0x8000)
	scratchBase   = uint64(0x9000)
	stackTop      = uint64(0x7000)
)

// SetupLongMode places the boot page tables (built with the same code that
// models the trampoline's tables) and the boot GDT into guest memory and
// programs the vcpu with the register state the boot trampoline establishes
// before it jumps into the kernel: 64-bit CS, CR3 at the table root,
// PAE+LME+PG enabled. The data segment registers hold the boot GDT's 0x10
// data selector, whereas the trampoline loads null selectors into them.
func (m *Machine) SetupLongMode() error {
	var tables vmm.BootTables
	tables.Build(pageTableBase)

	writeTable := func(base uint64, table *[512]vmm.PageTableEntry) {
		for i, entry := range table {
			binary.LittleEndian.PutUint64(m.Mem[base+uint64(i)*8:], uint64(entry))
		}
	}
	writeTable(pageTableBase, &tables.PML4)
	writeTable(pageTableBase+0x1000, &tables.PDPTLow)
	writeTable(pageTableBase+0x2000, &tables.PDPTHigh)
	writeTable(pageTableBase+0x3000, &tables.PDT)

	gdt := cpu.BootGDT()
	for i, desc := range gdt {
		binary.LittleEndian.PutUint64(m.Mem[gdtBase+uint64(i)*8:], uint64(desc))
	}

	s, err := m.Sregs()
	if err != nil {
		return err
	}

	code := segment{
		Base: 0, Limit: 0xffffffff,
		Selector: cpu.SelectorKernelCode,
		Type:     0xb, Present: 1, S: 1, L: 1, G: 1,
	}
	data := segment{
		Base: 0, Limit: 0xffffffff,
		Selector: cpu.SelectorKernelData,
		Type:     0x3, Present: 1, S: 1, DB: 1, G: 1,
	}

	s.CS = code
	s.DS, s.ES, s.FS, s.GS, s.SS = data, data, data, data, data
	s.GDT = dtable{Base: gdtBase, Limit: uint16(len(gdt)*8 - 1)}
	s.CR3 = pageTableBase
	s.CR4 |= cpu.CR4PAE
	s.CR0 |= cpu.CR0ProtectedMode | cpu.CR0Paging
	s.EFER |= cpu.EFERLongModeEnable | cpu.EFERLongModeActive

	return m.SetSregs(s)
}

// LoadCode copies machine code into guest memory at codeBase and points the
// vcpu at it.
func (m *Machine) LoadCode(code []byte) error {
	copy(m.Mem[codeBase:], code)

	r, err := m.Regs()
	if err != nil {
		return err
	}
	r.RIP = codeBase
	r.RSP = stackTop
	r.RFlags = 0x2
	return m.SetRegs(r)
}
