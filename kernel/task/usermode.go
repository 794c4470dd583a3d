package task

import (
	"ringos/kernel"
	"ringos/kernel/cpu"
	"ringos/kernel/gdt"
	"ringos/kernel/kfmt"
	"ringos/kernel/mm/vmm"
)

// Frame is the stack image consumed by IRETQ when returning to a lower
// privilege level.
type Frame struct {
	RIP    uint64
	CS     uint64
	RFlags uint64
	RSP    uint64
	SS     uint64
}

var (
	// The following functions are mocked by tests.
	setDataSegmentFn = gdt.SetDataSegment
	flushTLBFn       = cpu.FlushTLB
	enterUsermodeFn  = enterUsermode
	panicFn          = kfmt.Panic

	// usermodeFrame backs the IRETQ frame; the transition is one-way so a
	// single frame suffices.
	usermodeFrame Frame

	errUsermodeReturned = &kernel.Error{Module: "task", Message: "returned from user mode"}
	errKernelEntry      = &kernel.Error{Module: "task", Message: "user mode entry point lies in kernel space"}
	errKernelStack      = &kernel.Error{Module: "task", Message: "user mode stack lies in kernel space"}
)

// UsermodeFrame builds the IRETQ frame that starts executing entry at ring3
// with the stack pointer set to stack. Interrupts are enabled and the I/O
// privilege level is 0 so port I/O faults in ring3.
func UsermodeFrame(sel *gdt.Selectors, entry, stack uintptr) Frame {
	return Frame{
		RIP:    uint64(entry),
		CS:     uint64(sel.UserCode.WithRPL(gdt.Ring3)),
		RFlags: cpu.FlagInterruptEnable,
		RSP:    uint64(stack),
		SS:     uint64(sel.UserData.WithRPL(gdt.Ring3)),
	}
}

// JumpToUsermode drops the CPU to ring3 and starts executing entry with the
// supplied stack top. The address space that maps entry and stack must
// already be active. All general purpose registers are zeroed before the
// switch so no kernel state leaks to user code.
//
// JumpToUsermode never returns; control re-enters the kernel only through
// the system call gate or an interrupt.
func JumpToUsermode(sel *gdt.Selectors, entry, stack uintptr) {
	if !vmm.IsUserAddress(entry) {
		panicFn(errKernelEntry)
		return
	}

	// stack is a top-of-stack address so it may equal the upper bound.
	if stack == 0 || !vmm.IsUserAddress(stack-1) {
		panicFn(errKernelStack)
		return
	}

	setDataSegmentFn(sel.UserData.WithRPL(gdt.Ring3))
	flushTLBFn()

	usermodeFrame = UsermodeFrame(sel, entry, stack)
	enterUsermodeFn(&usermodeFrame)

	panicFn(errUsermodeReturned)
}
