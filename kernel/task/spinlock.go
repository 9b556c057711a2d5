package task

import "sync/atomic"

// Spinlock guards the task manager. It is only ever try-locked with
// interrupts disabled: on a single core, waiting for it inside an interrupt
// that preempted the holder would never end.
type Spinlock struct {
	state atomic.Uint32
}

func (l *Spinlock) TryLock() bool {
	return l.state.CompareAndSwap(0, 1)
}

func (l *Spinlock) Unlock() {
	l.state.Store(0)
}

func (l *Spinlock) Locked() bool {
	return l.state.Load() != 0
}
