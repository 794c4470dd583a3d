package task

// Capture saves the general purpose registers as they were when Capture was
// called, together with the caller's RIP (the return address), RSP, RFLAGS,
// CS and SS. Resuming the context with Restore continues execution right
// after the call to Capture.
//
//go:noescape
func Capture(ctx *Context)

// Restore loads every general purpose register from ctx and resumes
// execution through the IRETQ frame stored in it. When the frame selectors
// carry RPL 3 the CPU drops to ring3. Restore never returns.
//
//go:noescape
func Restore(ctx *Context)
