// Package sched keeps track of the processes known to the kernel.
package sched

import (
	"ringos/kernel/mm/vmm"
	"ringos/kernel/task"
)

// PID uniquely identifies a process. PIDs are assigned in increasing order
// starting at 1 and are never reused.
type PID uint64

// Process describes a schedulable unit of execution. A process exclusively
// owns the page directory table it was created with.
type Process struct {
	pid       PID
	context   task.Context
	pageTable *vmm.PageDirectoryTable
}

// PID returns the process identifier.
func (p *Process) PID() PID {
	return p.pid
}

// Context returns the saved register state of the process. The zero value
// indicates that the process has never run.
func (p *Process) Context() *task.Context {
	return &p.context
}

// PageTable returns the top-level page table owned by the process.
func (p *Process) PageTable() *vmm.PageDirectoryTable {
	return p.pageTable
}
