// Package vmm exposes the slice of the paging subsystem that the process
// table and the ring transition rely on: an owned handle to a top-level page
// table and the ability to make it the active address space.
package vmm

import (
	"ringos/kernel/cpu"
	"ringos/kernel/mm"
)

var (
	// activePDTFn is used by tests to override calls to activePDT which
	// will cause a fault if called in user-mode.
	activePDTFn = cpu.ActivePDT

	// switchPDTFn is used by tests to override calls to switchPDT which
	// will cause a fault if called in user-mode.
	switchPDTFn = cpu.SwitchPDT
)

// MaxUserAddress is the first address above the canonical lower half of the
// 48-bit address space. Ring3 code and stacks must live below it.
const MaxUserAddress = uintptr(1 << 47)

// PageDirectoryTable describes the top-most table in a multi-level paging
// scheme. A process owns exactly one PageDirectoryTable; the table contents
// are populated by the paging subsystem.
type PageDirectoryTable struct {
	pdtFrame mm.Frame
}

// NewPageDirectoryTable wraps the already initialized top-level table stored
// at pdtFrame.
func NewPageDirectoryTable(pdtFrame mm.Frame) *PageDirectoryTable {
	return &PageDirectoryTable{pdtFrame: pdtFrame}
}

// Frame returns the physical frame holding the table.
func (pdt *PageDirectoryTable) Frame() mm.Frame {
	return pdt.pdtFrame
}

// IsActive returns true if the CPU is currently translating addresses through
// this table.
func (pdt *PageDirectoryTable) IsActive() bool {
	return mm.FrameFromAddress(activePDTFn()) == pdt.pdtFrame
}

// Activate enables this page directory table and flushes the TLB.
func (pdt *PageDirectoryTable) Activate() {
	switchPDTFn(pdt.pdtFrame.Address())
}

// IsUserAddress returns true if addr lies in the canonical lower half that
// ring3 code is allowed to reference.
func IsUserAddress(addr uintptr) bool {
	return addr < MaxUserAddress
}
