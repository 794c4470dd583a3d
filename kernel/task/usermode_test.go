package task

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ringos/kernel"
	"ringos/kernel/cpu"
	"ringos/kernel/gdt"
	"ringos/kernel/mm/vmm"
)

type usermodeMock struct {
	calls  []string
	dataDS gdt.Selector
	frame  Frame
	panics []interface{}
}

func mockUsermode(t *testing.T) *usermodeMock {
	t.Helper()

	origSetDS, origFlush, origEnter, origPanic := setDataSegmentFn, flushTLBFn, enterUsermodeFn, panicFn
	t.Cleanup(func() {
		setDataSegmentFn, flushTLBFn, enterUsermodeFn, panicFn = origSetDS, origFlush, origEnter, origPanic
	})

	m := new(usermodeMock)
	setDataSegmentFn = func(sel gdt.Selector) {
		m.calls = append(m.calls, "ds")
		m.dataDS = sel
	}
	flushTLBFn = func() { m.calls = append(m.calls, "tlb") }
	enterUsermodeFn = func(f *Frame) {
		m.calls = append(m.calls, "iretq")
		m.frame = *f
	}
	panicFn = func(e interface{}) { m.panics = append(m.panics, e) }

	return m
}

func testSelectors() *gdt.Selectors {
	return &gdt.Selectors{
		KernelCode: 0x08,
		KernelData: 0x10,
		TaskState:  0x18,
		UserData:   0x28,
		UserCode:   0x30,
	}
}

func TestUsermodeFrame(t *testing.T) {
	f := UsermodeFrame(testSelectors(), 0x400000, 0x7ffffff000)

	assert.Equal(t, uint64(0x400000), f.RIP)
	assert.Equal(t, uint64(0x33), f.CS)
	assert.Equal(t, uint64(0x2b), f.SS)
	assert.Equal(t, uint64(0x7ffffff000), f.RSP)
	assert.Equal(t, cpu.FlagInterruptEnable, f.RFlags)
	assert.Zero(t, f.RFlags&cpu.FlagIOPrivilege, "ring3 must not be granted I/O privilege")
}

func TestJumpToUsermode(t *testing.T) {
	m := mockUsermode(t)

	JumpToUsermode(testSelectors(), 0x400000, 0x7ffffff000)

	assert.Equal(t, []string{"ds", "tlb", "iretq"}, m.calls)
	assert.Equal(t, gdt.Selector(0x2b), m.dataDS)
	assert.Equal(t, UsermodeFrame(testSelectors(), 0x400000, 0x7ffffff000), m.frame)

	// The mocked IRETQ returns so the terminal panic must fire.
	assert.Equal(t, []interface{}{errUsermodeReturned}, m.panics)
}

func TestJumpToUsermodeRejectsKernelAddresses(t *testing.T) {
	specs := []struct {
		name  string
		entry uintptr
		stack uintptr
		exp   *kernel.Error
	}{
		{"kernel entry", 0xffffffff80100000, 0x7ffffff000, errKernelEntry},
		{"kernel stack", 0x400000, 0xffff800000001000, errKernelStack},
		{"null stack", 0x400000, 0, errKernelStack},
	}

	for _, spec := range specs {
		t.Run(spec.name, func(t *testing.T) {
			m := mockUsermode(t)

			JumpToUsermode(testSelectors(), spec.entry, spec.stack)

			assert.Empty(t, m.calls, "no hardware state may change")
			assert.Equal(t, []interface{}{spec.exp}, m.panics)
		})
	}
}

func TestJumpToUsermodeStackAtUpperBound(t *testing.T) {
	m := mockUsermode(t)

	JumpToUsermode(testSelectors(), 0x400000, vmm.MaxUserAddress)

	assert.Equal(t, []string{"ds", "tlb", "iretq"}, m.calls)
	assert.Equal(t, uint64(vmm.MaxUserAddress), m.frame.RSP)
}
