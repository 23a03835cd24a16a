//go:build !kernel

package gate

import "unsafe"

// hostedVectorTable stands in for the assembly-exported vector table when
// the package is compiled outside the kernel (unit tests); tests populate
// it with recognizable values before calling Init.
var hostedVectorTable [vectorCount]uintptr

func vectorTableAddr() uintptr {
	return uintptr(unsafe.Pointer(&hostedVectorTable[0]))
}
