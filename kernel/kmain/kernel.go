package kmain

import (
	"ringos/kernel"
	"ringos/kernel/gate"
	"ringos/kernel/gdt"
	"ringos/kernel/kfmt"
	"ringos/kernel/mm/vmm"
	"ringos/kernel/sched"
	"ringos/kernel/task"
)

var (
	// The following functions are mocked by tests.
	segmentsInitFn   = (*gdt.SegmentTable).Init
	syscallsInitFn   = (*gate.Gate).Init
	procsInitFn      = (*sched.Table).Init
	activatePDTFn    = (*vmm.PageDirectoryTable).Activate
	jumpToUsermodeFn = task.JumpToUsermode

	errNotInitialized = &kernel.Error{Module: "kmain", Message: "kernel services not initialized"}
	errNotUserAddress = &kernel.Error{Module: "kmain", Message: "entry point or stack lies outside user space"}

	gdtLog   = kfmt.PrefixWriter{Sink: kfmt.Console{}, Prefix: []byte("[gdt] ")}
	gateLog  = kfmt.PrefixWriter{Sink: kfmt.Console{}, Prefix: []byte("[gate] ")}
	schedLog = kfmt.PrefixWriter{Sink: kfmt.Console{}, Prefix: []byte("[sched] ")}
)

// Kernel owns the privilege separation services. Exactly one Kernel exists
// and it must not be moved after Init since the CPU keeps pointers to the
// descriptor table and the task state segment.
type Kernel struct {
	Segments gdt.SegmentTable
	Syscalls gate.Gate
	Procs    sched.Table

	selectors *gdt.Selectors
}

// Init brings up the services in dependency order: the descriptor table,
// the system call gate that refers to its selectors and finally the process
// table.
func (k *Kernel) Init() {
	k.selectors = segmentsInitFn(&k.Segments)
	kfmt.Fprintf(&gdtLog, "descriptor table loaded; kernel CS=0x%2x user CS=0x%2x\n",
		uint16(k.selectors.KernelCode), uint16(k.selectors.UserCode.WithRPL(gdt.Ring3)))
	kfmt.Fprintf(&gdtLog, "ring0 stack top at 0x%16x\n", uint64(k.Segments.KernelStackTop()))

	syscallsInitFn(&k.Syscalls, k.selectors)
	kfmt.Fprintf(&gateLog, "syscall entry at 0x%16x\n", uint64(k.Syscalls.EntryPoint()))

	procsInitFn(&k.Procs)
	kfmt.Fprintf(&schedLog, "process table ready\n")
}

// Selectors returns the selectors produced by Init or nil if Init has not
// been called.
func (k *Kernel) Selectors() *gdt.Selectors {
	return k.selectors
}

// Spawn registers a new process that owns pt, activates its address space
// and enters ring3 at entry using stack as the user stack top. On success
// Spawn does not return; the returned error reports why the process could
// not be created. Addresses are checked before any state changes so a
// rejected request neither consumes a PID nor switches address spaces.
func (k *Kernel) Spawn(pt *vmm.PageDirectoryTable, entry, stack uintptr) (sched.PID, *kernel.Error) {
	if k.selectors == nil {
		return 0, errNotInitialized
	}

	if !vmm.IsUserAddress(entry) || stack == 0 || !vmm.IsUserAddress(stack-1) {
		return 0, errNotUserAddress
	}

	pid, err := k.Procs.CreateThread(pt)
	if err != nil {
		return 0, err
	}

	if proc, ok := k.Procs.Lookup(pid); ok {
		proc.Context().SetFrame(task.UsermodeFrame(k.selectors, entry, stack))
	}

	kfmt.Fprintf(&schedLog, "pid %d entering user mode at 0x%x\n", uint64(pid), uint64(entry))

	activatePDTFn(pt)
	jumpToUsermodeFn(k.selectors, entry, stack)

	return pid, nil
}
