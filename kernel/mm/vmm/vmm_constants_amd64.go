package vmm

// PageTableEntryFlag describes a flag that can be applied to a page table
// entry.
type PageTableEntryFlag uint64

const (
	// FlagPresent is set when the page is available in memory.
	FlagPresent PageTableEntryFlag = 1 << iota

	// FlagRW is set if the page can be written to.
	FlagRW

	// FlagUserAccessible is set if user-mode processes can access this
	// page. If not set only kernel code can access this page.
	FlagUserAccessible

	// FlagWriteThroughCaching implies write-through caching when set and
	// write-back caching if cleared.
	FlagWriteThroughCaching

	// FlagDoNotCache prevents this page from being cached if set.
	FlagDoNotCache

	// FlagAccessed is set by the CPU when this page is accessed.
	FlagAccessed

	// FlagDirty is set by the CPU when this page is modified.
	FlagDirty

	// FlagHugePage is set when an entry maps a 2M page directly instead of
	// pointing to a 4K page table.
	FlagHugePage

	// FlagGlobal prevents the TLB from flushing the cached translation for
	// this page when CR3 is reloaded.
	FlagGlobal
)

const (
	// PageSize is the size of a regular page frame.
	PageSize = uint64(4096)

	// HugePageSize is the size of the 2M pages the boot mapping uses.
	HugePageSize = uint64(2) << 20

	// KernelPageOffset is the virtual base of the high-half kernel
	// mapping. Subtracting it from a high-half link address yields the
	// physical load address.
	KernelPageOffset = uint64(0xffffffff80000000)

	// BootMapSize is the amount of physical memory mapped by the boot page
	// tables, both at the identity range and at the high-half alias.
	BootMapSize = uint64(128) << 20

	// ptePhysPageMask extracts the physical address bits (12-51) from a
	// page table entry.
	ptePhysPageMask = uint64(0x000ffffffffff000)
)

// Table slots used by the boot mapping.
const (
	pml4IdentitySlot = 0
	pml4KernelSlot   = 511
	pdptIdentitySlot = 0
	pdptKernelSlot   = 510

	bootPDTEntries = int(BootMapSize / HugePageSize)
)

// Shifts that isolate the table index for each page level within a virtual
// address.
const (
	pml4Shift = 39
	pdptShift = 30
	pdtShift  = 21

	tableIndexMask = 0x1ff
)
