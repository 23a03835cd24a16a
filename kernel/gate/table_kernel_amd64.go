//go:build kernel

package gate

// vectorTableAddr returns the address of the interrupt_vector_table symbol
// exported by the interrupt entry assembly: 256 quadwords, each holding the
// address of the 16-byte-aligned stub for that vector. Implemented in
// table_kernel_amd64.s; kernel builds resolve the symbol at final link.
func vectorTableAddr() uintptr
