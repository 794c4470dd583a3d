package gdt

var (
	// The following functions are mocked by tests since they fault when
	// executed outside ring0.
	loadGDTFn          = loadGDT
	setCodeSegmentFn   = setCodeSegment
	setDataSegmentsFn  = setDataSegments
	loadTaskRegisterFn = loadTaskRegister
)

// loadGDT executes LGDT with the 10-byte table pointer stored at ptr.
func loadGDT(ptr uintptr)

// setCodeSegment reloads CS with sel via a far return to the caller.
func setCodeSegment(sel Selector)

// setDataSegments loads DS, ES and SS with sel.
func setDataSegments(sel Selector)

// loadTaskRegister executes LTR with sel.
func loadTaskRegister(sel Selector)

// SetDataSegment loads DS and ES with sel. Unlike setDataSegments it leaves
// SS untouched so it may be called with a ring3 selector while still running
// in ring0.
func SetDataSegment(sel Selector)
