// Package task is the preemptive priority scheduler: task handles, message
// receivers, the task manager and the context switch driver.
package task

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"orchid/hal"
	"orchid/kernel/klog"
	"orchid/kernel/mpsc"
)

// DefaultTicksPerPreemption is a 1000 Hz timer divided by 50 Hz preemption.
const DefaultTicksPerPreemption = 1000 / 50

// Options configure a Scheduler. Zero fields take defaults.
type Options struct {
	Logger *klog.Logger
	// TicksPerPreemption is the number of timer ticks a task runs before the
	// timer handler forces a switch.
	TicksPerPreemption uint32
	// StackSize is the stack of tasks whose builder does not set one.
	StackSize int
	// Priority is the priority of tasks whose builder does not set one.
	Priority Priority
}

// Scheduler owns all tasks of one CPU. Construct it once during kernel init
// and pass it to the timer handler and to code that spawns tasks.
//
// Every entry point that touches the task table disables interrupts and
// try-locks; the raw switch runs after the lock is released.
type Scheduler struct {
	cpu  hal.CPU
	log  *klog.Logger
	opts Options

	lock Spinlock
	mgr  *manager

	generation atomic.Uint64
	ticksLeft  atomic.Uint32
	counters

	panicking    atomic.Bool
	panicOnce    sync.Once
	panicHandler atomic.Value // func(PanicInfo)
}

// New returns a scheduler for cpu. Call Initialize from the boot context
// before anything else.
func New(cpu hal.CPU, opts Options) *Scheduler {
	if opts.TicksPerPreemption == 0 {
		opts.TicksPerPreemption = DefaultTicksPerPreemption
	}
	if opts.StackSize <= 0 {
		opts.StackSize = DefaultStackSize
	}
	if opts.Priority == 0 {
		opts.Priority = DefaultPriority
	}
	return &Scheduler{cpu: cpu, log: opts.Logger, opts: opts}
}

// Initialize turns the calling context into the "main" task and spawns the
// idle task. It returns the main task's receiver and handle.
func Initialize[T any](s *Scheduler) (*Receiver[T], TypedHandle[T], error) {
	enabled := s.cpu.DisableInterrupts()
	defer s.cpu.RestoreInterrupts(enabled)
	if !s.lock.TryLock() {
		return nil, TypedHandle[T]{}, ErrLockContended
	}
	defer s.lock.Unlock()
	if s.mgr != nil {
		return nil, TypedHandle[T]{}, ErrAlreadyInitialized
	}

	h := newHandle(newID(), "main", MainPriority, true, &s.generation)
	consumer := mpsc.NewConsumer[T]()
	th := TypedHandle[T]{Handle: h, producer: consumer.Producer()}
	main := &Task{handle: h, ctx: new(hal.TaskContext)}
	s.cpu.CaptureContext(main.ctx)

	s.mgr = newManager(main, &s.counters)
	s.generation.Add(1)

	idle := NewBuilder("idle", s.idleMain).SetPriority(IdlePriority).SetStackSize(4 << 10)
	spawnLocked(s, s.mgr, idle)

	s.log.Infof("scheduler: main task %v, preemption every %d ticks", h, s.opts.TicksPerPreemption)
	return &Receiver[T]{consumer: consumer, handle: th, sched: s}, th, nil
}

// Spawn adds a task built by b and returns its handle.
func Spawn[T any](s *Scheduler, b *Builder[T]) (TypedHandle[T], error) {
	var th TypedHandle[T]
	if b.arg != nil && !b.takesArg {
		return th, fmt.Errorf("spawn %q: %w", b.name, ErrArgUnused)
	}
	err := s.withManager(func(m *manager) error {
		th = spawnLocked(s, m, b)
		return nil
	})
	return th, err
}

func spawnLocked[T any](s *Scheduler, m *manager, b *Builder[T]) TypedHandle[T] {
	prio := s.opts.Priority
	if b.hasPrio {
		prio = b.priority
	}
	size := s.opts.StackSize
	if b.stackSize > 0 {
		size = b.stackSize
	}

	h := newHandle(newID(), b.name, prio, b.waking, &s.generation)
	consumer := mpsc.NewConsumer[T]()
	th := TypedHandle[T]{Handle: h, producer: consumer.Producer()}
	recv := &Receiver[T]{consumer: consumer, handle: th, sched: s}

	t := &Task{handle: h, ctx: new(hal.TaskContext), stack: NewStack(size)}
	start := b.start
	l := &launch{sched: s, task: t, start: func(arg any) { start(recv, arg) }}
	t.prime(s.cpu, taskEntry, hal.Pin(l), pinArg(b.arg))

	m.add(t)
	// The new task may outrank the current round.
	s.generation.Add(1)
	s.log.Debugf("scheduler: spawned %v", t)
	return th
}

func (s *Scheduler) idleMain(*Receiver[struct{}]) {
	for {
		s.cpu.EnableAndHalt()
	}
}

// withManager runs fn with interrupts disabled and the manager locked.
func (s *Scheduler) withManager(fn func(m *manager) error) error {
	enabled := s.cpu.DisableInterrupts()
	defer s.cpu.RestoreInterrupts(enabled)
	if !s.lock.TryLock() {
		return ErrLockContended
	}
	defer s.lock.Unlock()
	if s.mgr == nil {
		return ErrNotInitialized
	}
	return fn(s.mgr)
}

func (s *Scheduler) startSwitch() (switchRequest, error) {
	if !s.lock.TryLock() {
		return switchRequest{}, ErrLockContended
	}
	defer s.lock.Unlock()
	if s.mgr == nil {
		return switchRequest{}, ErrNotInitialized
	}
	return s.mgr.startContextSwitch(s.generation.Load())
}

// TrySwitchContext switches to the next task of the current round. It
// returns once the calling task is scheduled again.
//
// If no task is waking it halts until an interrupt changes that.
func (s *Scheduler) TrySwitchContext() error {
	enabled := s.cpu.DisableInterrupts()
	defer s.cpu.RestoreInterrupts(enabled)
	for {
		req, err := s.startSwitch()
		if err == nil {
			s.ticksLeft.Store(s.opts.TicksPerPreemption)
			s.switches.AddRelaxed(1)
			if s.log.Enabled(klog.LevelTrace) {
				s.log.Tracef("switch %v -> %v", req.from.handle, req.to.handle)
			}
			s.cpu.SwitchContext(req.next, req.current)
			return nil
		}
		if !errors.Is(err, ErrNothingToRun) {
			return err
		}
		s.nothingToRun.AddRelaxed(1)
		s.log.Errorf("scheduler: %v, halting until the next interrupt", err)
		s.cpu.EnableAndHalt()
		s.cpu.DisableInterrupts()
	}
}

// Yield gives up the CPU to the next task of the current round.
func (s *Scheduler) Yield() {
	if err := s.TrySwitchContext(); err != nil {
		s.log.Warnf("yield: %v", err)
	}
}

// TickAndCheckContextSwitch counts one timer tick. It reports true once the
// running task has used up its ticks; the count restarts at every switch.
func (s *Scheduler) TickAndCheckContextSwitch() bool {
	for {
		left := s.ticksLeft.Load()
		if left == 0 {
			s.preemptions.AddRelaxed(1)
			return true
		}
		if s.ticksLeft.CompareAndSwap(left, left-1) {
			return false
		}
	}
}

// Current returns the handle of the running task.
func (s *Scheduler) Current() (Handle, error) {
	var h Handle
	err := s.withManager(func(m *manager) error {
		h = m.current.handle
		return nil
	})
	return h, err
}

// Tasks returns a snapshot of all tasks in ID order.
func (s *Scheduler) Tasks() ([]Info, error) {
	var out []Info
	err := s.withManager(func(m *manager) error {
		out = m.snapshot()
		return nil
	})
	return out, err
}

func (s *Scheduler) Stats() Stats {
	return Stats{
		Switches:     s.switches.LoadRelaxed(),
		Rebuilds:     s.rebuilds.LoadRelaxed(),
		Preemptions:  s.preemptions.LoadRelaxed(),
		NothingToRun: s.nothingToRun.LoadRelaxed(),
		Generation:   s.generation.Load(),
	}
}

// CPU returns the processor the scheduler switches on.
func (s *Scheduler) CPU() hal.CPU { return s.cpu }

func (s *Scheduler) Logger() *klog.Logger { return s.log }
