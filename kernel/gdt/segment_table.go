package gdt

import (
	"io"
	"unsafe"

	"ringos/kernel"
	"ringos/kernel/kfmt"
)

// Selectors bundles the five selectors produced while building the table.
// All selectors carry RPL 0; code that enters ring3 tags the user selectors
// with WithRPL(Ring3). A Selectors value is read-only once returned by
// SegmentTable.Init.
type Selectors struct {
	KernelCode Selector
	KernelData Selector
	TaskState  Selector
	UserCode   Selector
	UserData   Selector

	table *Table
}

// Table returns the descriptor table the selectors refer to.
func (s *Selectors) Table() *Table {
	return s.table
}

// SegmentTable owns the global descriptor table and the task state segment.
// The kernel holds exactly one SegmentTable for its whole lifetime; neither
// the table nor the TSS may move once loaded since the CPU keeps referring to
// them by address.
type SegmentTable struct {
	loaded    bool
	table     Table
	tss       TaskState
	selectors Selectors
}

// Init builds the descriptor table and TSS on first use, loads the table
// register, reloads CS/DS/ES/SS with the kernel selectors and loads the task
// register. Later calls return the same selectors without touching the CPU.
// A malformed table is a programming error and halts the kernel.
func (st *SegmentTable) Init() *Selectors {
	if st.loaded {
		return &st.selectors
	}

	if _, err := st.Layout(); err != nil {
		kfmt.Panic(err)
		return nil
	}

	ptr := st.table.pointer()
	loadGDTFn(uintptr(unsafe.Pointer(&ptr)))
	setCodeSegmentFn(st.selectors.KernelCode)
	setDataSegmentsFn(st.selectors.KernelData)
	loadTaskRegisterFn(st.selectors.TaskState)

	st.loaded = true
	return &st.selectors
}

// build populates the TSS and the descriptor table in the fixed layout order.
func (st *SegmentTable) build() *kernel.Error {
	var (
		sel = &st.selectors
		err *kernel.Error
	)

	st.tss.SetInterruptStack(DoubleFaultIST, stackTop(doubleFaultStack[:]))
	st.tss.SetPrivilegeStack(Ring0, stackTop(ring0Stack[:]))
	st.tss.denyIOPorts()

	if sel.KernelCode, err = st.table.add(KernelCode, KernelCodeDescriptor()); err != nil {
		return err
	}
	if sel.KernelData, err = st.table.add(KernelData, KernelDataDescriptor()); err != nil {
		return err
	}

	tssLo, tssHi := TaskStateDescriptor(uintptr(unsafe.Pointer(&st.tss)), uint32(unsafe.Sizeof(st.tss)-1))
	if sel.TaskState, err = st.table.addSystem(TaskStateSegment, tssLo, tssHi); err != nil {
		return err
	}

	if sel.UserData, err = st.table.add(UserData, UserDataDescriptor()); err != nil {
		return err
	}
	if sel.UserCode, err = st.table.add(UserCode, UserCodeDescriptor()); err != nil {
		return err
	}

	if err = st.table.validate(sel); err != nil {
		return err
	}

	sel.table = &st.table
	return nil
}

// Layout builds the descriptor table and TSS without loading them into the
// CPU and returns the resulting selectors. The table is only built once.
func (st *SegmentTable) Layout() (*Selectors, *kernel.Error) {
	if st.selectors.table == nil {
		if err := st.build(); err != nil {
			return nil, err
		}
	}

	return &st.selectors, nil
}

// Loaded returns true once Init has programmed the CPU.
func (st *SegmentTable) Loaded() bool {
	return st.loaded
}

// TaskState returns the task state segment referenced by the table.
func (st *SegmentTable) TaskState() *TaskState {
	return &st.tss
}

// DoubleFaultStackTop returns the stack top recorded in the double fault IST
// slot.
func (st *SegmentTable) DoubleFaultStackTop() uintptr {
	return st.tss.InterruptStack(DoubleFaultIST)
}

// KernelStackTop returns the stack top the CPU loads into RSP when a ring3
// task is interrupted.
func (st *SegmentTable) KernelStackTop() uintptr {
	return st.tss.PrivilegeStack(Ring0)
}

// DumpTo writes one line per table entry to w.
func (st *SegmentTable) DumpTo(w io.Writer) {
	for i, seg := range st.table.Segments() {
		var sel Selector
		switch seg {
		case KernelCode:
			sel = st.selectors.KernelCode
		case KernelData:
			sel = st.selectors.KernelData
		case TaskStateSegment:
			sel = st.selectors.TaskState
		case UserData:
			sel = st.selectors.UserData
		case UserCode:
			sel = st.selectors.UserCode
		}

		kfmt.Fprintf(w, "%d: %11s sel=0x%2x desc=0x%16x\n", i, seg.String(), uint16(sel), uint64(st.table.Descriptor(sel)))
	}
}
