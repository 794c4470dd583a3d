package gdt

import "unsafe"

const (
	// DoubleFaultIST is the interrupt stack table slot (0-based; hardware
	// IST1) that the IDT's double fault gate must reference.
	DoubleFaultIST = 0

	// InterruptStackSize is the size of the static double fault stack.
	InterruptStackSize = 4096 * 5

	// KernelStackSize is the size of the stack the CPU switches to when an
	// interrupt or exception arrives while running in ring3.
	KernelStackSize = 4096 * 4

	// taskStateSize is the architectural size of the amd64 TSS.
	taskStateSize = 104
)

// doubleFaultStack is reserved for the double fault handler and never used
// for anything else.
var doubleFaultStack [InterruptStackSize]byte

// ring0Stack is loaded into RSP0 of the TSS.
var ring0Stack [KernelStackSize]byte

// TaskState is the amd64 task state segment. Hardware task switching does not
// exist in long mode; the TSS only supplies the privilege-level and interrupt
// stack pointers. 64-bit fields are split into uint32 halves so that rsp0
// sits at the architectural offset 4 without compiler padding.
type TaskState struct {
	_              uint32
	privilegeStack [3 * 2]uint32
	_              [2]uint32
	interruptStack [7 * 2]uint32
	_              [2]uint32
	_              uint16
	ioMapBase      uint16
}

// SetInterruptStack stores top in interrupt stack table slot index (0-6).
func (t *TaskState) SetInterruptStack(index int, top uintptr) {
	t.interruptStack[index*2] = uint32(top)
	t.interruptStack[index*2+1] = uint32(uint64(top) >> 32)
}

// InterruptStack returns the stack top stored in slot index (0-6).
func (t *TaskState) InterruptStack(index int) uintptr {
	return uintptr(uint64(t.interruptStack[index*2+1])<<32 | uint64(t.interruptStack[index*2]))
}

// SetPrivilegeStack stores the stack used when entering ring (0-2) from a
// less privileged ring.
func (t *TaskState) SetPrivilegeStack(ring Privilege, top uintptr) {
	t.privilegeStack[ring*2] = uint32(top)
	t.privilegeStack[ring*2+1] = uint32(uint64(top) >> 32)
}

// PrivilegeStack returns the stack stored for ring (0-2).
func (t *TaskState) PrivilegeStack(ring Privilege) uintptr {
	return uintptr(uint64(t.privilegeStack[ring*2+1])<<32 | uint64(t.privilegeStack[ring*2]))
}

// denyIOPorts points the I/O permission bitmap past the segment limit so
// that every port access from ring3 faults.
func (t *TaskState) denyIOPorts() {
	t.ioMapBase = uint16(unsafe.Sizeof(*t))
}

// stackTop returns the 16-byte aligned address one past the end of stack.
func stackTop(stack []byte) uintptr {
	end := uintptr(unsafe.Pointer(&stack[0])) + uintptr(len(stack))
	return end &^ 15
}

// Size returns the size of the segment as referenced by its descriptor.
func (t *TaskState) Size() uintptr {
	return unsafe.Sizeof(*t)
}

// IOMapBase returns the offset of the I/O permission bitmap.
func (t *TaskState) IOMapBase() uint16 {
	return t.ioMapBase
}
