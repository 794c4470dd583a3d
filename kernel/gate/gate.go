// Package gate wires the SYSCALL/SYSRET fast system call path: it enables the
// instruction pair, masks interrupts on entry, installs the entry trampoline
// and programs the selectors used on entry and return.
package gate

import (
	"ringos/kernel"
	"ringos/kernel/cpu"
	"ringos/kernel/gdt"
	"ringos/kernel/kfmt"
)

var panicFn = kfmt.Panic

// Model-specific registers used by the fast system call path.
const (
	msrEFER        = 0xc0000080
	msrSTAR        = 0xc0000081
	msrLSTAR       = 0xc0000082
	msrSyscallMask = 0xc0000084

	// eferSyscallEnable is the EFER.SCE bit.
	eferSyscallEnable = 1 << 0
)

var (
	errNoSyscall        = &kernel.Error{Module: "gate", Message: "CPU does not support SYSCALL/SYSRET"}
	errSyscallSelectors = &kernel.Error{Module: "gate", Message: "kernel data selector must follow kernel code selector"}
	errSysretSelectors  = &kernel.Error{Module: "gate", Message: "user code selector must follow user data selector"}
	errReprogrammed     = &kernel.Error{Module: "gate", Message: "syscall gate re-initialized with different selectors"}
)

// StarValue computes the IA32_STAR value for sel. SYSCALL loads CS from bits
// 32-47 and SS from that selector + 8; SYSRET loads SS from bits 48-63 + 8
// and CS from bits 48-63 + 16, forcing RPL 3 on both. An error is returned if
// the selectors do not follow that adjacency.
func StarValue(sel *gdt.Selectors) (uint64, *kernel.Error) {
	if sel.KernelData.Index() != sel.KernelCode.Index()+1 {
		return 0, errSyscallSelectors
	}

	if sel.UserCode.Index() != sel.UserData.Index()+1 {
		return 0, errSysretSelectors
	}

	syscallBase := sel.KernelCode.WithRPL(gdt.Ring0)
	sysretBase := gdt.NewSelector(sel.UserData.Index()-1, gdt.Ring3)

	return uint64(sysretBase)<<48 | uint64(syscallBase)<<32, nil
}

// Gate tracks the programmed state of the fast system call MSRs.
type Gate struct {
	armed bool
	star  uint64
}

// Init programs the fast system call path using sel, which can only be
// obtained from gdt.SegmentTable.Init; the descriptor table is therefore
// always loaded first. Calling Init again with the same selectors is a no-op.
// Calling it with different selectors, or on a CPU without SYSCALL support,
// halts the kernel.
func (g *Gate) Init(sel *gdt.Selectors) {
	star, err := StarValue(sel)
	if err != nil {
		panicFn(err)
		return
	}

	if g.armed {
		if star != g.star {
			panicFn(errReprogrammed)
		}
		return
	}

	if !hasSyscallFn() {
		panicFn(errNoSyscall)
		return
	}

	writeMSRFn(msrEFER, readMSRFn(msrEFER)|eferSyscallEnable)

	// The trampoline runs with interrupts disabled until it switches to
	// a kernel stack.
	writeMSRFn(msrSyscallMask, cpu.FlagInterruptEnable)
	writeMSRFn(msrLSTAR, uint64(entryAddrFn()))
	writeMSRFn(msrSTAR, star)

	g.star = star
	g.armed = true
}

// Armed returns true once Init has programmed the MSRs.
func (g *Gate) Armed() bool {
	return g.armed
}

// EntryPoint returns the address of the system call trampoline. The address
// is part of the kernel text and stays fixed for the kernel's lifetime.
func (g *Gate) EntryPoint() uintptr {
	return entryAddrFn()
}
