// Package gdt builds the global descriptor table, the task state segment and
// the double fault stack, and loads them into the CPU.
package gdt

// Privilege is a CPU privilege level (ring).
type Privilege uint16

const (
	// Ring0 is the unrestricted kernel privilege level.
	Ring0 Privilege = 0

	// Ring3 is the restricted user privilege level.
	Ring3 Privilege = 3
)

// Selector identifies a descriptor table entry. Bits 3-15 hold the table
// index, bit 2 the table indicator (always 0: GDT) and bits 0-1 the requested
// privilege level (RPL).
type Selector uint16

// NewSelector returns the selector for the GDT entry at index with the given
// requested privilege level.
func NewSelector(index uint16, rpl Privilege) Selector {
	return Selector(index<<3 | uint16(rpl&3))
}

// Index returns the descriptor table index referenced by s.
func (s Selector) Index() uint16 {
	return uint16(s) >> 3
}

// RPL returns the requested privilege level encoded in s.
func (s Selector) RPL() Privilege {
	return Privilege(s & 3)
}

// WithRPL returns a copy of s tagged with the requested privilege level rpl.
func (s Selector) WithRPL(rpl Privilege) Selector {
	return s&^3 | Selector(rpl&3)
}

// Descriptor is a raw 64-bit segment descriptor. System descriptors (the TSS)
// occupy two consecutive Descriptor slots.
type Descriptor uint64

// DescriptorFlag is a bit within a Descriptor.
type DescriptorFlag uint64

const (
	// FlagAccessed is set by the CPU on first use; presetting it avoids a
	// write to the (possibly read-only) table.
	FlagAccessed DescriptorFlag = 1 << 40

	// FlagWritable marks data segments writable (readable for code).
	FlagWritable DescriptorFlag = 1 << 41

	// FlagExecutable marks a code segment.
	FlagExecutable DescriptorFlag = 1 << 43

	// FlagUserSegment is set for code/data segments and clear for system
	// segments such as the TSS.
	FlagUserSegment DescriptorFlag = 1 << 44

	// FlagDPLRing3 sets the descriptor privilege level to 3.
	FlagDPLRing3 DescriptorFlag = 3 << 45

	// FlagPresent must be set for every usable descriptor.
	FlagPresent DescriptorFlag = 1 << 47

	// FlagLongMode marks a 64-bit code segment.
	FlagLongMode DescriptorFlag = 1 << 53

	// FlagDefaultSize selects 32-bit operands; must be clear for 64-bit code.
	FlagDefaultSize DescriptorFlag = 1 << 54

	// FlagGranularity scales the limit by 4K.
	FlagGranularity DescriptorFlag = 1 << 55

	// flagMaxLimit sets both limit fields to their maximum value.
	flagMaxLimit DescriptorFlag = 0xffff | 0xf<<48

	// flagsCommon is shared by all flat code and data segments.
	flagsCommon = FlagUserSegment | FlagPresent | FlagWritable | FlagAccessed | flagMaxLimit | FlagGranularity

	// tssAvailable is the system segment type of an available 64-bit TSS.
	tssAvailable = 0x9
)

// KernelCodeDescriptor returns a flat 64-bit ring0 code segment.
func KernelCodeDescriptor() Descriptor {
	return Descriptor(flagsCommon | FlagExecutable | FlagLongMode)
}

// KernelDataDescriptor returns a flat ring0 data segment.
func KernelDataDescriptor() Descriptor {
	return Descriptor(flagsCommon | FlagDefaultSize)
}

// UserCodeDescriptor returns a flat 64-bit ring3 code segment.
func UserCodeDescriptor() Descriptor {
	return KernelCodeDescriptor() | Descriptor(FlagDPLRing3)
}

// UserDataDescriptor returns a flat ring3 data segment.
func UserDataDescriptor() Descriptor {
	return KernelDataDescriptor() | Descriptor(FlagDPLRing3)
}

// TaskStateDescriptor returns the low and high halves of the 16-byte system
// descriptor that points to a TSS at base with the given limit.
func TaskStateDescriptor(base uintptr, limit uint32) (lo, hi Descriptor) {
	b := uint64(base)
	l := uint64(limit)

	lo = Descriptor(l&0xffff |
		(b&0xffffff)<<16 |
		tssAvailable<<40 |
		uint64(FlagPresent) |
		(l>>16&0xf)<<48 |
		(b>>24&0xff)<<56)
	hi = Descriptor(b >> 32)

	return lo, hi
}

// Has returns true if all bits of flag are set in d.
func (d Descriptor) Has(flag DescriptorFlag) bool {
	return DescriptorFlag(d)&flag == flag
}

// DPL returns the descriptor privilege level.
func (d Descriptor) DPL() Privilege {
	return Privilege(d>>45) & 3
}

// IsSystem returns true for system descriptors (TSS, LDT, gates).
func (d Descriptor) IsSystem() bool {
	return !d.Has(FlagUserSegment)
}

// Base returns the base address encoded in the low half of a descriptor.
func (d Descriptor) Base() uint32 {
	return uint32(d>>16&0xffffff | d>>32&0xff000000)
}

// Limit returns the raw (unscaled) 20-bit limit.
func (d Descriptor) Limit() uint32 {
	return uint32(d&0xffff | d>>32&0xf0000)
}
