package task

import (
	"fmt"
	"unsafe"

	"orchid/hal"
)

const stackAlign = 16

// Stack is a task's stack allocation. The zero Stack is the empty stack of
// the boot context, which keeps running on the stack it was booted with.
type Stack struct {
	buf []byte
}

// NewStack allocates size bytes plus alignment slack.
func NewStack(size int) Stack {
	if size <= 0 {
		return Stack{}
	}
	return Stack{buf: make([]byte, size+stackAlign)}
}

// Size returns the usable size.
func (s Stack) Size() int {
	if len(s.buf) == 0 {
		return 0
	}
	return len(s.buf) - stackAlign
}

// Top returns the 16-byte aligned address one past the highest usable byte.
func (s Stack) Top() uint64 {
	if len(s.buf) == 0 {
		return 0
	}
	end := uintptr(unsafe.Pointer(unsafe.SliceData(s.buf))) + uintptr(len(s.buf))
	return uint64(end &^ (stackAlign - 1))
}

// Task is a schedulable context. Tasks are created by Spawn and live as long
// as the scheduler.
type Task struct {
	handle Handle
	ctx    *hal.TaskContext
	stack  Stack
}

func (t *Task) Handle() Handle { return t.handle }

func (t *Task) String() string {
	return fmt.Sprintf("%v (prio %d)", t.handle, t.handle.Priority())
}

// prime makes the context look like a task interrupted right at entry: the
// first switch to it starts entry(rdi, rsi) with interrupts enabled.
func (t *Task) prime(cpu hal.CPU, entry, rdi, rsi uint64) {
	cpu.CaptureContext(t.ctx)
	t.ctx.RIP = entry
	t.ctx.RDI = rdi
	t.ctx.RSI = rsi
	t.ctx.RFlags = hal.InitialRFlags
	// As if a return address had been pushed by a call.
	t.ctx.RSP = t.stack.Top() - 8
	t.ctx.SetMXCSR(hal.DefaultMXCSR)
}

// launch is what a new context finds in RDI on its first run.
type launch struct {
	sched *Scheduler
	task  *Task
	start func(arg any)
}

var taskEntry = hal.RegisterEntry(enterTask)

func enterTask(rdi, rsi uint64) {
	l, ok := hal.Unpin(rdi).(*launch)
	if !ok {
		panic(fmt.Sprintf("task: no launch record behind %#x", rdi))
	}
	l.sched.run(l, hal.Unpin(rsi))
}

func pinArg(arg any) uint64 {
	if arg == nil {
		return 0
	}
	return hal.Pin(arg)
}
