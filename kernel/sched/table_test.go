package sched

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringos/kernel/mm"
	"ringos/kernel/mm/vmm"
	ksync "ringos/kernel/sync"
	"ringos/kernel/task"
)

// countingInterrupts replaces the CLI/STI based controller which faults
// outside ring0.
type countingInterrupts struct {
	disables int64
	restores int64
}

func (c *countingInterrupts) Disable() bool {
	atomic.AddInt64(&c.disables, 1)
	return false
}

func (c *countingInterrupts) Restore(wasEnabled bool) {
	atomic.AddInt64(&c.restores, 1)
}

func stubInterrupts(t *testing.T) *countingInterrupts {
	t.Helper()

	orig := ksync.Interrupts
	t.Cleanup(func() { ksync.Interrupts = orig })

	c := new(countingInterrupts)
	ksync.Interrupts = c
	return c
}

func pageTable(frame mm.Frame) *vmm.PageDirectoryTable {
	return vmm.NewPageDirectoryTable(frame)
}

func TestCreateThreadBeforeInit(t *testing.T) {
	stubInterrupts(t)

	var tbl Table
	pid, err := tbl.CreateThread(pageTable(1))
	assert.Equal(t, ErrUnavailable, err)
	assert.Zero(t, pid)
	assert.Zero(t, tbl.Len())

	_, ok := tbl.Lookup(1)
	assert.False(t, ok)
}

func TestCreateThread(t *testing.T) {
	irq := stubInterrupts(t)

	var tbl Table
	tbl.Init()

	pt1, pt2 := pageTable(10), pageTable(11)

	pid, err := tbl.CreateThread(pt1)
	require.Nil(t, err)
	assert.Equal(t, PID(1), pid)

	pid, err = tbl.CreateThread(pt2)
	require.Nil(t, err)
	assert.Equal(t, PID(2), pid)

	assert.Equal(t, 2, tbl.Len())

	proc, ok := tbl.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, PID(2), proc.PID())
	assert.Same(t, pt2, proc.PageTable())
	assert.Equal(t, task.Context{}, *proc.Context(), "new processes start with a zeroed context")

	_, ok = tbl.Lookup(3)
	assert.False(t, ok)
	_, ok = tbl.Lookup(0)
	assert.False(t, ok)

	for _, pid := range []PID{1<<63 + 1, ^PID(0)} {
		_, ok = tbl.Lookup(pid)
		assert.False(t, ok, "pid %d was never handed out", pid)
	}

	assert.Equal(t, irq.disables, irq.restores, "every masked section must be unmasked")
}

func TestCreateThreadWithoutPageTable(t *testing.T) {
	stubInterrupts(t)

	var tbl Table
	tbl.Init()

	_, err := tbl.CreateThread(nil)
	assert.Equal(t, ErrNoPageTable, err)
	assert.Zero(t, tbl.Len())

	pid, err := tbl.CreateThread(pageTable(1))
	require.Nil(t, err)
	assert.Equal(t, PID(1), pid, "a rejected request must not consume a PID")
}

func TestInitIsIdempotent(t *testing.T) {
	stubInterrupts(t)

	var tbl Table
	tbl.Init()

	_, err := tbl.CreateThread(pageTable(1))
	require.Nil(t, err)

	tbl.Init()
	assert.Equal(t, 1, tbl.Len())

	pid, err := tbl.CreateThread(pageTable(2))
	require.Nil(t, err)
	assert.Equal(t, PID(2), pid)
}

func TestConcurrentCreateThread(t *testing.T) {
	stubInterrupts(t)

	const (
		workers   = 8
		perWorker = 64
	)

	var tbl Table
	tbl.Init()

	var (
		wg   sync.WaitGroup
		pids = make(chan PID, workers*perWorker)
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				pid, err := tbl.CreateThread(pageTable(mm.Frame(w*perWorker + i)))
				if assert.Nil(t, err) {
					pids <- pid
				}
			}
		}(w)
	}
	wg.Wait()
	close(pids)

	seen := make(map[PID]bool)
	for pid := range pids {
		assert.False(t, seen[pid], "pid %d handed out twice", pid)
		seen[pid] = true
	}

	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, workers*perWorker, tbl.Len())

	// Insertion order follows PID order.
	for pid := PID(1); pid <= workers*perWorker; pid++ {
		proc, ok := tbl.Lookup(pid)
		require.True(t, ok)
		assert.Equal(t, pid, proc.PID())
	}
}
