// Package mm defines the physical frame unit shared by the paging code and the
// process table.
package mm

// Frame describes a physical memory page index.
type Frame uintptr

// Address returns the physical address of the first byte in the frame.
func (f Frame) Address() uintptr {
	return uintptr(f << PageShift)
}

// FrameFromAddress returns the Frame containing physAddr. Unaligned addresses
// are rounded down.
func FrameFromAddress(physAddr uintptr) Frame {
	return Frame(physAddr >> PageShift)
}
