package task

import "runtime/debug"

// PanicInfo describes the failure that stopped the kernel.
type PanicInfo struct {
	TaskID ID
	Name   string
	Value  any
	Stack  []byte
}

// InPanicMode reports whether a task panicked.
func (s *Scheduler) InPanicMode() bool {
	return s.panicking.Load()
}

// SetPanicHandler installs the function that reports a kernel panic.
//
// The handler is invoked at most once (on the first panic), with interrupts
// disabled. It must not panic.
func (s *Scheduler) SetPanicHandler(fn func(PanicInfo)) {
	s.panicHandler.Store(fn)
}

// RecoverPanic turns a panic of the calling task into a kernel panic. Tasks
// started by Spawn are covered already; the boot context defers it.
func (s *Scheduler) RecoverPanic() {
	if v := recover(); v != nil {
		s.kernelPanic(s.currentOrZero(), v, debug.Stack())
	}
}

// run executes a spawned task. Tasks never finish: a panic or a return from
// the entry function halts the kernel.
func (s *Scheduler) run(l *launch, arg any) {
	defer func() {
		if v := recover(); v != nil {
			s.kernelPanic(l.task.handle, v, debug.Stack())
		}
	}()
	l.start(arg)
	s.kernelPanic(l.task.handle, ErrTaskReturned, debug.Stack())
}

func (s *Scheduler) kernelPanic(h Handle, v any, stack []byte) {
	s.cpu.DisableInterrupts()
	s.panicOnce.Do(func() {
		s.panicking.Store(true)
		info := PanicInfo{Value: v, Stack: stack}
		if h.Valid() {
			info.TaskID = h.ID()
			info.Name = h.Name()
		}
		s.log.Errorf("kernel panic in %s: %v", info.Name, v)
		if fn, ok := s.panicHandler.Load().(func(PanicInfo)); ok && fn != nil {
			fn(info)
		}
	})
	for {
		s.cpu.Halt()
	}
}

func (s *Scheduler) currentOrZero() Handle {
	h, err := s.Current()
	if err != nil {
		return Handle{}
	}
	return h
}
