package sync

import "ringos/kernel/cpu"

// InterruptController masks and unmasks hardware interrupts for IRQ-safe
// critical sections.
type InterruptController interface {
	// Disable masks interrupts and reports whether they were enabled
	// before the call.
	Disable() bool

	// Restore re-enables interrupts if wasEnabled is true.
	Restore(wasEnabled bool)
}

// Interrupts is the controller used by every IRQSpinlock. Code running
// outside ring0 (e.g. tests) must replace it since CLI/STI fault in user mode.
var Interrupts InterruptController = cpuInterrupts{}

type cpuInterrupts struct{}

func (cpuInterrupts) Disable() bool {
	wasEnabled := cpu.InterruptsEnabled()
	cpu.DisableInterrupts()
	return wasEnabled
}

func (cpuInterrupts) Restore(wasEnabled bool) {
	if wasEnabled {
		cpu.EnableInterrupts()
	}
}

// IRQSpinlock is a Spinlock that keeps interrupts masked while it is held.
// It must protect any state that may also be touched from an interrupt
// handler; a plain Spinlock would self-deadlock if the handler fired while
// the interrupted code held the lock.
type IRQSpinlock struct {
	lock Spinlock

	// restoreIF is only accessed while the lock is held.
	restoreIF bool
}

// Acquire masks interrupts and then spins until the lock is acquired.
func (l *IRQSpinlock) Acquire() {
	wasEnabled := Interrupts.Disable()
	l.lock.Acquire()
	l.restoreIF = wasEnabled
}

// Release unlocks l and restores the interrupt state observed by the
// matching Acquire call.
func (l *IRQSpinlock) Release() {
	wasEnabled := l.restoreIF
	l.restoreIF = false
	l.lock.Release()
	Interrupts.Restore(wasEnabled)
}
