package vmtest

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// KVM ioctl numbers from <linux/kvm.h>.
const (
	kvmGetAPIVersion       = 0xae00
	kvmCreateVM            = 0xae01
	kvmGetVCPUMmapSize     = 0xae04
	kvmCreateVCPU          = 0xae41
	kvmSetUserMemoryRegion = 0x4020ae46
	kvmRun                 = 0xae80
	kvmGetRegs             = 0x8090ae81
	kvmSetRegs             = 0x4090ae82
	kvmGetSregs            = 0x8138ae83
	kvmSetSregs            = 0x4138ae84
)

// KVM exit reasons (subset).
const (
	exitIO            = 2
	exitHlt           = 5
	exitMmio          = 6
	exitShutdown      = 8
	exitFailEntry     = 9
	exitInternalError = 17
)

// supported KVM API version.
const kvmAPIVersion = 12

// userMemoryRegion mirrors struct kvm_userspace_memory_region.
type userMemoryRegion struct {
	slot          uint32
	flags         uint32
	guestPhysAddr uint64
	memorySize    uint64
	userspaceAddr uint64
}

// regs mirrors struct kvm_regs.
type regs struct {
	RAX, RBX, RCX, RDX uint64
	RSI, RDI, RSP, RBP uint64
	R8, R9, R10, R11   uint64
	R12, R13, R14, R15 uint64
	RIP, RFlags        uint64
}

// segment mirrors struct kvm_segment.
type segment struct {
	Base                           uint64
	Limit                          uint32
	Selector                       uint16
	Type                           uint8
	Present, DPL, DB, S, L, G, AVL uint8
	Unusable                       uint8
	_                              uint8
}

// dtable mirrors struct kvm_dtable.
type dtable struct {
	Base  uint64
	Limit uint16
	_     [3]uint16
}

// sregs mirrors struct kvm_sregs.
type sregs struct {
	CS, DS, ES, FS, GS, SS segment
	TR, LDT                segment
	GDT, IDT               dtable
	CR0, CR2, CR3, CR4     uint64
	CR8                    uint64
	EFER                   uint64
	APICBase               uint64
	InterruptBitmap        [4]uint64
}

// ioExit is the kvm_run union member describing a port IO exit.
type ioExit struct {
	Direction  uint8
	Size       uint8
	Port       uint16
	Count      uint32
	DataOffset uint64
}

// Offsets into the mmapped kvm_run structure.
const (
	runExitReasonOffset = 8
	runUnionOffset      = 32
)

func ioctl(fd int, req uint, arg uintptr) (int, error) {
	r, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), arg)
	if errno != 0 {
		return 0, fmt.Errorf("ioctl 0x%x: %w", req, errno)
	}
	return int(r), nil
}

func ioctlPtr(fd int, req uint, ptr unsafe.Pointer) error {
	_, err := ioctl(fd, req, uintptr(ptr))
	return err
}
