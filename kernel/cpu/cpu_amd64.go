package cpu

var (
	cpuidFn  = ID
	rflagsFn = ReadRFlags
)

const (
	// FlagInterruptEnable is the RFLAGS.IF bit.
	FlagInterruptEnable = uint64(1 << 9)

	// FlagIOPrivilege covers both RFLAGS.IOPL bits.
	FlagIOPrivilege = uint64(3 << 12)

	// extendedFeatureLeaf is the CPUID leaf reporting SYSCALL/SYSRET support.
	extendedFeatureLeaf = 0x80000001

	// extendedFeatureSyscall is the EDX bit of extendedFeatureLeaf that
	// indicates SYSCALL/SYSRET support in 64-bit mode.
	extendedFeatureSyscall = 1 << 11
)

// EnableInterrupts enables interrupt handling.
func EnableInterrupts()

// DisableInterrupts disables interrupt handling.
func DisableInterrupts()

// Halt disables interrupts and stops instruction execution. It never returns.
func Halt()

// FlushTLB invalidates all non-global TLB entries by reloading CR3.
func FlushTLB()

// SwitchPDT sets the root page table directory to point to the specified
// physical address and flushes the TLB.
func SwitchPDT(pdtPhysAddr uintptr)

// ActivePDT returns the physical address of the currently active page table.
func ActivePDT() uintptr

// ReadRFlags returns the current value of the RFLAGS register.
func ReadRFlags() uint64

// ReadMSR returns the value of the model-specific register msr.
func ReadMSR(msr uint32) uint64

// WriteMSR stores value into the model-specific register msr.
func WriteMSR(msr uint32, value uint64)

// ID returns information about the CPU and its features. It
// is implemented as a CPUID instruction with EAX=leaf and
// returns the values in EAX, EBX, ECX and EDX.
func ID(leaf uint32) (eax, ebx, ecx, edx uint32)

// InterruptsEnabled returns true if RFLAGS.IF is currently set.
func InterruptsEnabled() bool {
	return rflagsFn()&FlagInterruptEnable != 0
}

// HasSyscall returns true if the CPU supports the SYSCALL/SYSRET instruction
// pair in 64-bit mode.
func HasSyscall() bool {
	maxLeaf, _, _, _ := cpuidFn(0x80000000)
	if maxLeaf < extendedFeatureLeaf {
		return false
	}

	_, _, _, edx := cpuidFn(extendedFeatureLeaf)
	return edx&extendedFeatureSyscall != 0
}

