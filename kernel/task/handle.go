package task

import (
	"fmt"
	"sync/atomic"
)

// ID identifies a task. IDs are assigned in increasing order and never reused.
type ID uint64

// Priority orders tasks: larger values are scheduled first.
type Priority uint8

const (
	IdlePriority    Priority = 0
	DefaultPriority Priority = 5
	MainPriority    Priority = 10
)

var lastID atomic.Uint64

func newID() ID {
	return ID(lastID.Add(1))
}

// stateWaking is bit 0 of the state word. The remaining bits count changes:
// every transition adds 2.
const (
	stateWaking uint64 = 1
	stateStep   uint64 = 2
)

type handleState struct {
	id       ID
	name     string
	priority atomic.Uint32
	state    atomic.Uint64

	// generation is the owning scheduler's configuration counter.
	generation *atomic.Uint64
}

// Handle is shared scheduling metadata of one task. Copies refer to the same
// task; all methods are safe for concurrent use, including from interrupt
// handlers.
type Handle struct {
	s *handleState
}

func newHandle(id ID, name string, prio Priority, waking bool, generation *atomic.Uint64) Handle {
	s := &handleState{id: id, name: name, generation: generation}
	s.priority.Store(uint32(prio))
	if waking {
		s.state.Store(stateWaking)
	}
	return Handle{s: s}
}

// Valid reports whether h refers to a task.
func (h Handle) Valid() bool { return h.s != nil }

func (h Handle) ID() ID         { return h.s.id }
func (h Handle) Name() string   { return h.s.name }
func (h Handle) String() string { return fmt.Sprintf("%s#%d", h.s.name, h.s.id) }

func (h Handle) Priority() Priority {
	return Priority(h.s.priority.Load())
}

// Waking reports whether the task is eligible to run.
func (h Handle) Waking() bool {
	return h.s.state.Load()&stateWaking != 0
}

// SetPriority changes the task's priority. It takes effect at the next switch.
func (h Handle) SetPriority(p Priority) {
	h.s.priority.Store(uint32(p))
	h.bump()
}

func (h Handle) SetWaking(waking bool) {
	if waking {
		h.Awake()
	} else {
		h.PutSleep()
	}
}

// Awake marks the task runnable. It always counts as a state change, so a
// concurrent TryCompareAndSleep on the old state fails.
func (h Handle) Awake() {
	h.update(stateWaking)
}

// PutSleep marks the task not runnable.
func (h Handle) PutSleep() {
	h.update(0)
}

func (h Handle) update(waking uint64) {
	for {
		old := h.s.state.Load()
		if h.s.state.CompareAndSwap(old, ((old+stateStep)&^stateWaking)|waking) {
			break
		}
	}
	h.bump()
}

// LoadState returns the raw state word for a later TryCompareAndSleep.
func (h Handle) LoadState() uint64 {
	return h.s.state.Load()
}

// TryCompareAndSleep puts the task to sleep only if its state still equals
// state. A false result means something (usually a Send) happened since state
// was loaded and the caller must re-check its queue.
func (h Handle) TryCompareAndSleep(state uint64) bool {
	if !h.s.state.CompareAndSwap(state, (state+stateStep)&^stateWaking) {
		return false
	}
	h.bump()
	return true
}

func (h Handle) bump() {
	h.s.generation.Add(1)
}
