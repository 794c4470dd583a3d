package sched

import (
	"ringos/kernel"
	"ringos/kernel/mm/vmm"
	ksync "ringos/kernel/sync"
)

var (
	// ErrUnavailable is returned when a process is created before the
	// table has been initialized. Callers may retry after Init.
	ErrUnavailable = &kernel.Error{Module: "sched", Message: "process table not initialized"}

	// ErrNoPageTable is returned when a process is created without an
	// address space.
	ErrNoPageTable = &kernel.Error{Module: "sched", Message: "process requires a page table"}
)

type pidCounter struct {
	lock ksync.IRQSpinlock
	next PID
}

type processList struct {
	lock  ksync.IRQSpinlock
	procs []*Process
}

// Table is the kernel-wide registry of processes. The PID counter and the
// process list are guarded by separate locks that are always acquired in
// that order, so PIDs appear in the list in the order they were handed out.
type Table struct {
	pids *pidCounter
	list *processList
}

// Init sets up the PID counter and an empty process list. Calling Init more
// than once has no effect.
func (t *Table) Init() {
	if t.pids == nil {
		t.pids = &pidCounter{next: 1}
	}
	if t.list == nil {
		t.list = &processList{}
	}
}

// CreateThread registers a new process that owns pt and returns its PID. The
// process starts with a zeroed Context. ErrUnavailable is returned if Init
// has not been called yet.
func (t *Table) CreateThread(pt *vmm.PageDirectoryTable) (PID, *kernel.Error) {
	pids, list := t.pids, t.list
	if pids == nil || list == nil {
		return 0, ErrUnavailable
	}

	if pt == nil {
		return 0, ErrNoPageTable
	}

	pids.lock.Acquire()
	pid := pids.next
	pids.next++

	list.lock.Acquire()
	list.procs = append(list.procs, &Process{pid: pid, pageTable: pt})
	list.lock.Release()

	pids.lock.Release()

	return pid, nil
}

// Lookup returns the process registered under pid.
func (t *Table) Lookup(pid PID) (*Process, bool) {
	list := t.list
	if list == nil || pid == 0 {
		return nil, false
	}

	list.lock.Acquire()
	defer list.lock.Release()

	// PIDs are dense and inserted in order.
	if pid > PID(len(list.procs)) {
		return nil, false
	}
	return list.procs[pid-1], true
}

// Len returns the number of registered processes.
func (t *Table) Len() int {
	list := t.list
	if list == nil {
		return 0
	}

	list.lock.Acquire()
	n := len(list.procs)
	list.lock.Release()
	return n
}
