// Package task defines the saved register file of a process together with
// the primitives that capture it, restore it and perform the one-way
// transition from ring0 to ring3.
package task

import (
	"io"
	"unsafe"

	"ringos/kernel/kfmt"
)

// Context is a snapshot of the CPU state needed to resume execution. The
// first 15 fields are the general purpose registers in the order Restore
// pops them; the trailing 5 fields form the frame consumed by IRETQ. The
// field order is relied upon by the assembly in context_amd64.s.
//
// The zero value describes a context that has never run.
type Context struct {
	RBP uint64
	RAX uint64
	RBX uint64
	RCX uint64
	RDX uint64
	RSI uint64
	RDI uint64
	R8  uint64
	R9  uint64
	R10 uint64
	R11 uint64
	R12 uint64
	R13 uint64
	R14 uint64
	R15 uint64

	RIP    uint64
	CS     uint64
	RFlags uint64
	RSP    uint64
	SS     uint64
}

// Register identifies a Context slot. Register values match the slot index
// inside Context.
type Register uint8

// The registers saved in a Context.
const (
	RegRBP Register = iota
	RegRAX
	RegRBX
	RegRCX
	RegRDX
	RegRSI
	RegRDI
	RegR8
	RegR9
	RegR10
	RegR11
	RegR12
	RegR13
	RegR14
	RegR15
	RegRIP
	RegCS
	RegRFlags
	RegRSP
	RegSS

	registerCount
)

// GPRCount is the number of general purpose registers saved in a Context.
const GPRCount = 15

var registerNames = [registerCount]string{
	"RBP", "RAX", "RBX", "RCX", "RDX", "RSI", "RDI",
	"R8", "R9", "R10", "R11", "R12", "R13", "R14", "R15",
	"RIP", "CS", "RFL", "RSP", "SS",
}

// String implements fmt.Stringer for Register.
func (r Register) String() string {
	if r >= registerCount {
		return "???"
	}
	return registerNames[r]
}

// RestoreOrder lists the general purpose registers in the order Restore pops
// them off a Context. Capture stores each register at its own field offset.
var RestoreOrder = [GPRCount]Register{
	RegRBP, RegRAX, RegRBX, RegRCX, RegRDX, RegRSI, RegRDI,
	RegR8, RegR9, RegR10, RegR11, RegR12, RegR13, RegR14, RegR15,
}

func (ctx *Context) slots() *[registerCount]uint64 {
	return (*[registerCount]uint64)(unsafe.Pointer(ctx))
}

// Reg returns the saved value of r.
func (ctx *Context) Reg(r Register) uint64 {
	return ctx.slots()[r]
}

// SetReg overwrites the saved value of r.
func (ctx *Context) SetReg(r Register, v uint64) {
	ctx.slots()[r] = v
}

// Frame returns the IRETQ frame stored at the tail of the context.
func (ctx *Context) Frame() Frame {
	return Frame{RIP: ctx.RIP, CS: ctx.CS, RFlags: ctx.RFlags, RSP: ctx.RSP, SS: ctx.SS}
}

// SetFrame overwrites the IRETQ frame stored at the tail of the context.
func (ctx *Context) SetFrame(f Frame) {
	ctx.RIP, ctx.CS, ctx.RFlags, ctx.RSP, ctx.SS = f.RIP, f.CS, f.RFlags, f.RSP, f.SS
}

// DumpTo outputs the register contents to w.
func (ctx *Context) DumpTo(w io.Writer) {
	kfmt.Fprintf(w, "RAX = %16x RBX = %16x\n", ctx.RAX, ctx.RBX)
	kfmt.Fprintf(w, "RCX = %16x RDX = %16x\n", ctx.RCX, ctx.RDX)
	kfmt.Fprintf(w, "RSI = %16x RDI = %16x\n", ctx.RSI, ctx.RDI)
	kfmt.Fprintf(w, "RBP = %16x\n", ctx.RBP)
	kfmt.Fprintf(w, "R8  = %16x R9  = %16x\n", ctx.R8, ctx.R9)
	kfmt.Fprintf(w, "R10 = %16x R11 = %16x\n", ctx.R10, ctx.R11)
	kfmt.Fprintf(w, "R12 = %16x R13 = %16x\n", ctx.R12, ctx.R13)
	kfmt.Fprintf(w, "R14 = %16x R15 = %16x\n", ctx.R14, ctx.R15)
	kfmt.Fprintf(w, "\n")
	kfmt.Fprintf(w, "RIP = %16x CS  = %16x\n", ctx.RIP, ctx.CS)
	kfmt.Fprintf(w, "RSP = %16x SS  = %16x\n", ctx.RSP, ctx.SS)
	kfmt.Fprintf(w, "RFL = %16x\n", ctx.RFlags)
}
