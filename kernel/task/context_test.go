package task

import (
	"bytes"
	"strings"
	"testing"
	"testing/quick"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextLayout(t *testing.T) {
	var ctx Context

	require.Equal(t, uintptr(registerCount)*8, unsafe.Sizeof(ctx))

	offsets := [registerCount]uintptr{
		unsafe.Offsetof(ctx.RBP), unsafe.Offsetof(ctx.RAX), unsafe.Offsetof(ctx.RBX),
		unsafe.Offsetof(ctx.RCX), unsafe.Offsetof(ctx.RDX), unsafe.Offsetof(ctx.RSI),
		unsafe.Offsetof(ctx.RDI), unsafe.Offsetof(ctx.R8), unsafe.Offsetof(ctx.R9),
		unsafe.Offsetof(ctx.R10), unsafe.Offsetof(ctx.R11), unsafe.Offsetof(ctx.R12),
		unsafe.Offsetof(ctx.R13), unsafe.Offsetof(ctx.R14), unsafe.Offsetof(ctx.R15),
		unsafe.Offsetof(ctx.RIP), unsafe.Offsetof(ctx.CS), unsafe.Offsetof(ctx.RFlags),
		unsafe.Offsetof(ctx.RSP), unsafe.Offsetof(ctx.SS),
	}

	for r := Register(0); r < registerCount; r++ {
		assert.Equal(t, uintptr(r)*8, offsets[r], "offset of %s", r)
	}

	// Restore pops straight into consecutive slots starting at offset 0.
	for i, r := range RestoreOrder {
		assert.Equal(t, uintptr(i)*8, offsets[r], "pop #%d (%s)", i, r)
	}
}

func TestRegisterAccessors(t *testing.T) {
	var ctx Context
	ctx.R12 = 0xdead
	ctx.SS = 0x2b

	assert.Equal(t, uint64(0xdead), ctx.Reg(RegR12))
	assert.Equal(t, uint64(0x2b), ctx.Reg(RegSS))

	ctx.SetReg(RegRDI, 42)
	assert.Equal(t, uint64(42), ctx.RDI)

	assert.Equal(t, "RFL", RegRFlags.String())
	assert.Equal(t, "???", registerCount.String())
}

func TestRestoreOrder(t *testing.T) {
	seen := make(map[Register]bool)
	for _, r := range RestoreOrder {
		assert.True(t, r < RegRIP, "%s is not a general purpose register", r)
		assert.False(t, seen[r], "%s appears twice", r)
		seen[r] = true
	}
	assert.Len(t, seen, GPRCount)
}

// popContext replays Restore over the memory image of ctx: the stack pointer
// starts at the first slot, the general purpose registers are popped in
// RestoreOrder and IRETQ consumes the remaining five slots.
func popContext(ctx *Context) [registerCount]uint64 {
	var (
		mem  = *(*[registerCount]uint64)(unsafe.Pointer(ctx))
		sp   int
		regs [registerCount]uint64
	)

	for _, r := range RestoreOrder {
		regs[r] = mem[sp]
		sp++
	}
	for _, r := range []Register{RegRIP, RegCS, RegRFlags, RegRSP, RegSS} {
		regs[r] = mem[sp]
		sp++
	}
	return regs
}

func TestRestoreLoadsEveryRegister(t *testing.T) {
	roundTrip := func(regs [registerCount]uint64) bool {
		var ctx Context
		for r := Register(0); r < registerCount; r++ {
			ctx.SetReg(r, regs[r])
		}
		return popContext(&ctx) == regs
	}

	if err := quick.Check(roundTrip, nil); err != nil {
		t.Fatal(err)
	}
}

func TestContextFrame(t *testing.T) {
	var ctx Context
	f := Frame{RIP: 0x400000, CS: 0x33, RFlags: 0x200, RSP: 0x7fff0000, SS: 0x2b}

	ctx.SetFrame(f)
	assert.Equal(t, f, ctx.Frame())
	assert.Equal(t, uint64(0x33), ctx.Reg(RegCS))
	assert.Zero(t, ctx.RAX)
}

func TestContextDump(t *testing.T) {
	ctx := Context{RAX: 1, RBX: 2, R15: 0xff, RIP: 0x400000, CS: 0x33, RFlags: 0x200}

	var buf bytes.Buffer
	ctx.DumpTo(&buf)

	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 13)
	assert.Equal(t, "RAX = 0000000000000001 RBX = 0000000000000002", lines[0])
	assert.Equal(t, "R14 = 0000000000000000 R15 = 00000000000000ff", lines[7])
	assert.Equal(t, "RIP = 0000000000400000 CS  = 0000000000000033", lines[9])
	assert.Equal(t, "RFL = 0000000000000200", lines[11])
}
