// Package kmain contains the Go entrypoint invoked by the rt0 code.
package kmain

import (
	"ringos/kernel"
	"ringos/kernel/kfmt"
)

var (
	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

	// kernelState is statically allocated; its address must stay fixed once
	// the descriptor table is loaded.
	kernelState Kernel

	panicFn = kfmt.Panic
)

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. It is invoked by the rt0 assembly code after setting
// up a minimal g0 struct that allows Go code to run on the stack allocated by
// the assembly code.
//
// Kmain is not expected to return. If it does, the kernel halts.
//
//go:noinline
func Kmain() {
	kfmt.Printf("Kernel starting...\n")

	kernelState.Init()
	kernelState.Segments.DumpTo(&gdtLog)

	// Use panicFn instead of panic to prevent the compiler from treating
	// the call as dead code.
	panicFn(errKmainReturned)
}
