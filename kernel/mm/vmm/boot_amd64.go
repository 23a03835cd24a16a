package vmm

import (
	"unsafe"

	"github.com/Amjad50/OS/kernel"
	"github.com/Amjad50/OS/kernel/cpu"
)

var (
	// activePDTFn is mocked by tests.
	activePDTFn = cpu.ActivePDT

	errBootChainBroken = &kernel.Error{Module: "vmm", Message: "boot page tables: table chain does not match the expected layout"}
	errBootMapBroken   = &kernel.Error{Module: "vmm", Message: "boot page tables: 2M mappings do not cover the boot range"}
)

// BootTables models the four contiguous page frames the boot trampoline
// turns into the initial address space: the PML4, one PDPT for the identity
// mapping, one PDPT for the high-half mapping and a single PDT both PDPTs
// share. The shared PDT is what makes the two virtual ranges aliases of the
// same physical memory rather than independent copies.
type BootTables struct {
	PML4     [512]PageTableEntry
	PDPTLow  [512]PageTableEntry
	PDPTHigh [512]PageTableEntry
	PDT      [512]PageTableEntry
}

// Frame offsets within the region, in the order the fields above lay them
// out.
const (
	pml4FrameOffset     = uint64(0x0000)
	pdptLowFrameOffset  = uint64(0x1000)
	pdptHighFrameOffset = uint64(0x2000)
	pdtFrameOffset      = uint64(0x3000)
)

// Build fills in t with the exact entries the 32-bit boot trampoline
// writes, assuming the region will reside at physBase (the physical address
// of the PML4 frame). Existing contents are discarded.
func (t *BootTables) Build(physBase uint64) {
	*t = BootTables{}

	tableFlags := FlagPresent | FlagRW

	t.PML4[pml4IdentitySlot].SetFrameAddress(physBase + pdptLowFrameOffset)
	t.PML4[pml4IdentitySlot].SetFlags(tableFlags)
	t.PML4[pml4KernelSlot].SetFrameAddress(physBase + pdptHighFrameOffset)
	t.PML4[pml4KernelSlot].SetFlags(tableFlags)

	t.PDPTLow[pdptIdentitySlot].SetFrameAddress(physBase + pdtFrameOffset)
	t.PDPTLow[pdptIdentitySlot].SetFlags(tableFlags)
	t.PDPTHigh[pdptKernelSlot].SetFrameAddress(physBase + pdtFrameOffset)
	t.PDPTHigh[pdptKernelSlot].SetFlags(tableFlags)

	for i := bootPDTEntries - 1; i >= 0; i-- {
		t.PDT[i].SetFrameAddress(uint64(i) * HugePageSize)
		t.PDT[i].SetFlags(tableFlags | FlagHugePage)
	}
}

// Validate checks that t still carries the boot mapping invariants for a
// region at physBase: both PML4 chains reach the shared PDT and the PDT
// identity-maps the whole boot range with writable supervisor huge pages.
func (t *BootTables) Validate(physBase uint64) *kernel.Error {
	tableFlags := FlagPresent | FlagRW

	chain := []struct {
		entry   PageTableEntry
		expAddr uint64
	}{
		{t.PML4[pml4IdentitySlot], physBase + pdptLowFrameOffset},
		{t.PML4[pml4KernelSlot], physBase + pdptHighFrameOffset},
		{t.PDPTLow[pdptIdentitySlot], physBase + pdtFrameOffset},
		{t.PDPTHigh[pdptKernelSlot], physBase + pdtFrameOffset},
	}

	for _, link := range chain {
		if !link.entry.HasFlags(tableFlags) || link.entry.FrameAddress() != link.expAddr {
			return errBootChainBroken
		}
	}

	for i := 0; i < bootPDTEntries; i++ {
		entry := t.PDT[i]
		if !entry.HasFlags(tableFlags|FlagHugePage) || entry.HasAnyFlag(FlagUserAccessible) || entry.FrameAddress() != uint64(i)*HugePageSize {
			return errBootMapBroken
		}
	}

	return nil
}

// Translate walks the boot tables of a region at physBase and returns the
// physical address that virt maps to. The bool return is false when virt is
// not covered by the boot mapping.
func (t *BootTables) Translate(virt, physBase uint64) (uint64, bool) {
	pml4Entry := t.PML4[virt>>pml4Shift&tableIndexMask]
	if !pml4Entry.HasFlags(FlagPresent) {
		return 0, false
	}

	pdpt := t.tableAt(pml4Entry.FrameAddress(), physBase)
	if pdpt == nil {
		return 0, false
	}

	pdptEntry := pdpt[virt>>pdptShift&tableIndexMask]
	if !pdptEntry.HasFlags(FlagPresent) {
		return 0, false
	}

	pdt := t.tableAt(pdptEntry.FrameAddress(), physBase)
	if pdt == nil {
		return 0, false
	}

	pdtEntry := pdt[virt>>pdtShift&tableIndexMask]
	if !pdtEntry.HasFlags(FlagPresent | FlagHugePage) {
		return 0, false
	}

	return pdtEntry.FrameAddress() | virt&(HugePageSize-1), true
}

// tableAt maps a physical frame address back to one of the four tables of
// the region, or nil if the address points outside the region.
func (t *BootTables) tableAt(physAddr, physBase uint64) *[512]PageTableEntry {
	switch physAddr {
	case physBase + pml4FrameOffset:
		return &t.PML4
	case physBase + pdptLowFrameOffset:
		return &t.PDPTLow
	case physBase + pdptHighFrameOffset:
		return &t.PDPTHigh
	case physBase + pdtFrameOffset:
		return &t.PDT
	}
	return nil
}

// BootTablesActive returns the live boot table region together with its
// physical base address. CR3 still points at the boot PML4 until a proper
// address space is constructed, and the region is reachable through its
// high-half alias.
func BootTablesActive() (*BootTables, uint64) {
	physBase := uint64(activePDTFn())
	return (*BootTables)(unsafe.Pointer(uintptr(physBase + KernelPageOffset))), physBase
}
