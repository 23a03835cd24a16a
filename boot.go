package main

import "github.com/Amjad50/OS/kernel/kmain"

var multibootInfoPtr uintptr

// main makes a dummy call to the actual kernel entrypoint function. It is
// intentionally defined to prevent the Go compiler from optimizing away the
// real kernel code; control never actually flows through here. The boot
// trampoline jumps straight to the kernel_main thunk which calls
// kmain.Kmain.
//
// A global variable is passed as an argument to Kmain to prevent the
// compiler from inlining the call and dropping Kmain from the generated
// object.
func main() {
	kmain.Kmain(multibootInfoPtr)
}
