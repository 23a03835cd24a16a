package kfmt

import (
	"github.com/Amjad50/OS/kernel"
	"github.com/Amjad50/OS/kernel/cpu"
)

// cpuHaltFn is mocked by tests.
var cpuHaltFn = cpu.Halt

// Panic reports an unrecoverable error to the console and halts the CPU.
// Calls to Panic never return.
//
// e may be a *kernel.Error, a plain string or any error value. Strings and
// generic errors are attributed to the "rt" module; no error value is
// materialized for them since the Go allocator may not be available.
func Panic(e interface{}) {
	Printf("\n-----------------------------------\n")

	switch t := e.(type) {
	case *kernel.Error:
		Printf("[%s] unrecoverable error: %s\n", t.Module, t.Message)
	case string:
		Printf("[rt] unrecoverable error: %s\n", t)
	case error:
		Printf("[rt] unrecoverable error: %s\n", t.Error())
	}

	Printf("*** kernel panic: system halted ***")
	Printf("\n-----------------------------------\n")

	cpuHaltFn()
}
