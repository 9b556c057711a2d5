// Package interrupts wires interrupt handlers to the scheduler.
package interrupts

import (
	"orchid/hal"
	"orchid/kernel/klog"
	"orchid/kernel/task"

	"code.hybscloud.com/atomix"
)

// Timer is the installed LAPIC timer handler. It counts ticks and preempts the
// running task once its ticks are used up.
type Timer struct {
	cpu    hal.CPU
	sched  *task.Scheduler
	log    *klog.Logger
	onTick func(tick uint64)

	ticks   atomix.Uint64
	skipped atomix.Uint64
}

// InstallTimer registers the timer handler on hal.VectorLAPICTimer.
// onTick, if not nil, runs on every tick with interrupts disabled; it must not
// block.
func InstallTimer(cpu hal.CPU, s *task.Scheduler, log *klog.Logger, onTick func(tick uint64)) *Timer {
	t := &Timer{cpu: cpu, sched: s, log: log, onTick: onTick}
	cpu.SetHandler(hal.VectorLAPICTimer, t.handle)
	return t
}

func (t *Timer) handle(uint8) {
	tick := t.ticks.Add(1)
	preempt := t.sched.TickAndCheckContextSwitch()
	if t.onTick != nil {
		t.onTick(tick)
	}
	// Signal EOI first: the switch returns here only when this task runs again.
	t.cpu.EndOfInterrupt()
	if !preempt {
		return
	}
	if err := t.sched.TrySwitchContext(); err != nil {
		t.skipped.Add(1)
		t.log.Warnf("timer: tick %d: preemption skipped: %v", tick, err)
	}
}

// Ticks returns the number of timer interrupts handled.
func (t *Timer) Ticks() uint64 {
	return t.ticks.LoadAcquire()
}

// Skipped returns the number of preemptions that failed.
func (t *Timer) Skipped() uint64 {
	return t.skipped.LoadAcquire()
}
