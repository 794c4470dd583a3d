package gate

import "ringos/kernel/cpu"

// ENOSYS is returned in RAX by the trampoline for every system call since no
// system call table is installed.
const ENOSYS = 38

var (
	// The following functions are mocked by tests since RDMSR/WRMSR fault
	// outside ring0.
	readMSRFn    = cpu.ReadMSR
	writeMSRFn   = cpu.WriteMSR
	hasSyscallFn = cpu.HasSyscall
	entryAddrFn  = entryAddr
)

// syscallEntry is the target of every SYSCALL instruction. It is entered
// with interrupts masked, RCX holding the user RIP and R11 the user RFLAGS.
func syscallEntry()

// entryAddr returns the address of syscallEntry.
func entryAddr() uintptr
