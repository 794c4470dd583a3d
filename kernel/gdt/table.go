package gdt

import (
	"encoding/binary"
	"unsafe"

	"ringos/kernel"
)

// Segment identifies the logical role of a descriptor table entry.
type Segment uint8

const (
	// KernelCode is the ring0 64-bit code segment.
	KernelCode Segment = iota

	// KernelData is the ring0 data/stack segment.
	KernelData

	// TaskStateSegment is the (two-slot) TSS system descriptor.
	TaskStateSegment

	// UserData is the ring3 data/stack segment.
	UserData

	// UserCode is the ring3 64-bit code segment.
	UserCode
)

var segmentNames = [...]string{
	KernelCode:       "kernel code",
	KernelData:       "kernel data",
	TaskStateSegment: "task state",
	UserData:         "user data",
	UserCode:         "user code",
}

// String returns a human readable name for the segment role.
func (s Segment) String() string {
	if int(s) < len(segmentNames) {
		return segmentNames[s]
	}
	return "unknown"
}

const (
	// EntryCount is the number of logical entries in the table.
	EntryCount = 5

	// slotCount is the number of hardware descriptor slots: the mandatory
	// null descriptor, four code/data segments and two TSS halves.
	slotCount = 1 + 4 + 2
)

// layout lists the only valid entry order. SYSCALL loads SS from the slot
// after the kernel code segment and SYSRET loads CS from the slot after the
// user data segment, so adjacency here is load-bearing.
var layout = [EntryCount]Segment{KernelCode, KernelData, TaskStateSegment, UserData, UserCode}

var (
	errTableFull    = &kernel.Error{Module: "gdt", Message: "descriptor table is full"}
	errBadLayout    = &kernel.Error{Module: "gdt", Message: "descriptor table entries out of order"}
	errBadAdjacency = &kernel.Error{Module: "gdt", Message: "syscall/sysret selector adjacency violated"}
)

// Table is a global descriptor table. Entries are appended in order; the
// selector returned for each entry is derived from the slot it lands in.
type Table struct {
	slots    [slotCount]Descriptor
	next     uint16
	segments [EntryCount]Segment
	count    int
}

// add appends a code/data descriptor and returns its ring0 selector.
func (t *Table) add(seg Segment, d Descriptor) (Selector, *kernel.Error) {
	if t.next == 0 {
		// slot 0 is the null descriptor
		t.next = 1
	}

	if t.count == EntryCount || int(t.next) >= slotCount {
		return 0, errTableFull
	}

	sel := NewSelector(t.next, Ring0)
	t.slots[t.next] = d
	t.next++
	t.segments[t.count] = seg
	t.count++

	return sel, nil
}

// addSystem appends a 16-byte system descriptor and returns its selector.
func (t *Table) addSystem(seg Segment, lo, hi Descriptor) (Selector, *kernel.Error) {
	if t.next == 0 {
		t.next = 1
	}

	if t.count == EntryCount || int(t.next)+1 >= slotCount {
		return 0, errTableFull
	}

	sel := NewSelector(t.next, Ring0)
	t.slots[t.next] = lo
	t.slots[t.next+1] = hi
	t.next += 2
	t.segments[t.count] = seg
	t.count++

	return sel, nil
}

// Len returns the number of logical entries in the table.
func (t *Table) Len() int {
	return t.count
}

// Segments returns the logical entries in table order.
func (t *Table) Segments() []Segment {
	return t.segments[:t.count]
}

// Descriptor returns the raw descriptor referenced by sel. The RPL bits of
// sel are ignored.
func (t *Table) Descriptor(sel Selector) Descriptor {
	if idx := sel.Index(); int(idx) < slotCount {
		return t.slots[idx]
	}
	return 0
}

// validate checks the table against the fixed layout and the SYSCALL/SYSRET
// adjacency rules.
func (t *Table) validate(sel *Selectors) *kernel.Error {
	if t.count != EntryCount {
		return errBadLayout
	}

	for i, seg := range layout {
		if t.segments[i] != seg {
			return errBadLayout
		}
	}

	if sel.KernelData.Index() != sel.KernelCode.Index()+1 ||
		sel.UserCode.Index() != sel.UserData.Index()+1 {
		return errBadAdjacency
	}

	return nil
}

// pointer returns the 10-byte operand of the LGDT instruction: a 16-bit
// limit followed by the 64-bit linear base address.
func (t *Table) pointer() [10]byte {
	var ptr [10]byte
	binary.LittleEndian.PutUint16(ptr[:2], uint16(unsafe.Sizeof(t.slots)-1))
	binary.LittleEndian.PutUint64(ptr[2:], uint64(uintptr(unsafe.Pointer(&t.slots[0]))))
	return ptr
}
