// Package vmtest runs tiny guest programs under KVM to verify the
// long-mode environment the boot path constructs: the boot page tables,
// the boot GDT and the control register state. The tests skip themselves
// when /dev/kvm is not available.
package vmtest
