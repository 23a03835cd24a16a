package kmain

import (
	"github.com/Amjad50/OS/kernel"
	"github.com/Amjad50/OS/kernel/cpu"
	"github.com/Amjad50/OS/kernel/gate"
	"github.com/Amjad50/OS/kernel/hal"
	"github.com/Amjad50/OS/kernel/hal/multiboot"
	"github.com/Amjad50/OS/kernel/kfmt"
	"github.com/Amjad50/OS/kernel/mm/vmm"
)

var (
	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}
)

// Kmain is the only Go symbol that is visible (exported) to the boot
// trampoline. The trampoline jumps here (through the kernel_main thunk)
// after switching to long mode, setting up the boot GDT and stack and
// preparing a minimal g0 record so Go code can run on the boot stack. The
// single argument is the high-half virtual address of the multiboot info
// payload provided by the bootloader.
//
// Kmain is not expected to return. If it does, the thunk halts the CPU.
//
//go:noinline
func Kmain(multibootInfoPtr uintptr) {
	multiboot.SetInfoPtr(multibootInfoPtr)

	hal.InitTerminal()
	hal.ActiveTerminal.Clear()

	if name := multiboot.GetBootloaderName(); name != "" {
		kfmt.Printf("loaded via %s\n", name)
	}

	checkBootMappings()

	// From here on every exception and interrupt lands in the gate
	// dispatcher with a full register snapshot.
	gate.Init()
	vmm.InstallFaultHandlers()
	kfmt.Printf("interrupt dispatch ready\n")

	logMemoryMap()

	kfmt.Panic(errKmainReturned)
}

// checkBootMappings reports the long-mode state handed over by the
// trampoline (CR0.PG, CR4.PAE and EFER.LMA are printed, not checked) and
// asserts that CR3 still points at the boot page tables with the identity
// and high-half mappings intact, panicking otherwise.
func checkBootMappings() {
	pg := cpu.ReadCR0()&cpu.CR0Paging != 0
	pae := cpu.ReadCR4()&cpu.CR4PAE != 0
	lma := cpu.ReadMSR(cpu.MSREFER)&cpu.EFERLongModeActive != 0
	kfmt.Printf("long mode: paging=%t pae=%t lma=%t\n", pg, pae, lma)

	tables, physBase := vmm.BootTablesActive()
	if err := tables.Validate(physBase); err != nil {
		kfmt.Panic(err)
	}

	kfmt.Printf("boot page tables at 0x%x: %d MB identity-mapped and aliased at 0x%16x\n",
		physBase, vmm.BootMapSize>>20, vmm.KernelPageOffset)
}

// logMemoryMap prints the memory regions reported by the bootloader.
func logMemoryMap() {
	kfmt.Printf("memory map:\n")
	multiboot.VisitMemRegions(func(entry *multiboot.MemoryMapEntry) bool {
		kfmt.Printf("  0x%16x - 0x%16x  %s\n",
			entry.PhysAddress, entry.PhysAddress+entry.Length, entry.Type.String())
		return true
	})
}
