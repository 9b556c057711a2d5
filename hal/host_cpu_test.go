//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

const testVector uint8 = 0x30

func TestInterruptsMaskedUntilEnabled(t *testing.T) {
	cpu := NewHostCPU()
	calls := 0
	cpu.SetHandler(testVector, func(uint8) { calls++ })

	if cpu.InterruptsEnabled() {
		t.Fatalf("InterruptsEnabled() = true on a fresh CPU, want false")
	}
	cpu.Raise(testVector)
	cpu.Pause()
	if calls != 0 {
		t.Fatalf("handler ran %d times with IF clear, want 0", calls)
	}

	cpu.EnableInterrupts()
	if calls != 1 {
		t.Fatalf("handler ran %d times after EnableInterrupts, want 1", calls)
	}
	if got := cpu.Delivered(); got != 1 {
		t.Fatalf("Delivered() = %d, want 1", got)
	}
}

func TestHandlerRunsWithInterruptsDisabled(t *testing.T) {
	cpu := NewHostCPU()
	cpu.EnableInterrupts()

	var inside bool
	cpu.SetHandler(testVector, func(uint8) {
		inside = cpu.InterruptsEnabled()
		cpu.EndOfInterrupt()
	})
	cpu.Raise(testVector)
	cpu.Pause()

	if inside {
		t.Fatalf("InterruptsEnabled() = true inside handler, want false")
	}
	if !cpu.InterruptsEnabled() {
		t.Fatalf("InterruptsEnabled() = false after handler returned, want true")
	}
	if got := cpu.EOIs(); got != 1 {
		t.Fatalf("EOIs() = %d, want 1", got)
	}
}

func TestDisableRestoreInterrupts(t *testing.T) {
	cpu := NewHostCPU()
	cpu.EnableInterrupts()

	if was := cpu.DisableInterrupts(); !was {
		t.Fatalf("DisableInterrupts() = false, want true")
	}
	if was := cpu.DisableInterrupts(); was {
		t.Fatalf("second DisableInterrupts() = true, want false")
	}
	cpu.RestoreInterrupts(false)
	if cpu.InterruptsEnabled() {
		t.Fatalf("RestoreInterrupts(false) enabled interrupts")
	}
	cpu.RestoreInterrupts(true)
	if !cpu.InterruptsEnabled() {
		t.Fatalf("RestoreInterrupts(true) left interrupts disabled")
	}
}

func TestRaiseDropsWhenRingFull(t *testing.T) {
	cpu := NewHostCPU()
	var calls int
	cpu.SetHandler(testVector, func(uint8) { calls++ })

	const raised = 4 * vectorRingSize
	for i := 0; i < raised; i++ {
		cpu.Raise(testVector)
	}
	dropped := cpu.Dropped()
	if dropped == 0 {
		t.Fatalf("Dropped() = 0 after %d raises, want > 0", raised)
	}
	cpu.EnableInterrupts()
	if uint64(calls)+dropped != raised {
		t.Fatalf("delivered %d + dropped %d != raised %d", calls, dropped, raised)
	}
}

func TestEnableAndHaltWakesOnRaise(t *testing.T) {
	cpu := NewHostCPU()
	var calls atomic.Int32
	cpu.SetHandler(testVector, func(uint8) { calls.Add(1) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		cpu.EnableAndHalt()
	}()

	time.Sleep(5 * time.Millisecond)
	cpu.Raise(testVector)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("EnableAndHalt did not return after Raise")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("handler ran %d times, want 1", got)
	}
}

func TestSwitchContextStartsEntry(t *testing.T) {
	cpu := NewHostCPU()
	var boot, task TaskContext

	var gotRDI, gotRSI uint64
	var handled, enabledAtEntry bool
	cpu.SetHandler(testVector, func(uint8) { handled = true })

	entry := RegisterEntry(func(rdi, rsi uint64) {
		gotRDI, gotRSI = rdi, rsi
		enabledAtEntry = cpu.InterruptsEnabled()
		cpu.DisableInterrupts()
		cpu.SwitchContext(&boot, &task)
		t.Error("task resumed after its final switch")
	})

	cpu.CaptureContext(&task)
	task.RIP = entry
	task.RDI = 7
	task.RSI = 9
	task.RFlags = InitialRFlags

	// Pending while the boot context runs with IF clear; delivered when the
	// task starts with IF set.
	cpu.Raise(testVector)

	done := make(chan struct{})
	go func() {
		defer close(done)
		cpu.SwitchContext(&task, &boot)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("boot context was not resumed")
	}

	if gotRDI != 7 || gotRSI != 9 {
		t.Fatalf("entry got (rdi, rsi) = (%d, %d), want (7, 9)", gotRDI, gotRSI)
	}
	if !enabledAtEntry {
		t.Fatalf("InterruptsEnabled() = false at entry, want true")
	}
	if !handled {
		t.Fatalf("pending interrupt not delivered on first resume")
	}
	if boot.CR3 != hostCR3 || boot.CS != hostKernelCS || boot.SS != hostKernelSS {
		t.Fatalf("boot context = CR3 %#x CS %#x SS %#x", boot.CR3, boot.CS, boot.SS)
	}
	if boot.InterruptsEnabled() {
		t.Fatalf("boot context saved with IF set")
	}
	if task.RIP != entry || task.InterruptsEnabled() {
		t.Fatalf("task context saved RIP %#x RFlags %#x", task.RIP, task.RFlags)
	}
	if got := cpu.Switches(); got != 2 {
		t.Fatalf("Switches() = %d, want 2", got)
	}
}

func TestSwitchToSelf(t *testing.T) {
	cpu := NewHostCPU()
	var ctx TaskContext

	done := make(chan struct{})
	go func() {
		defer close(done)
		cpu.SwitchContext(&ctx, &ctx)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("switch to the running context blocked")
	}
	if ctx.CR3 != hostCR3 {
		t.Fatalf("ctx.CR3 = %#x, want %#x", ctx.CR3, hostCR3)
	}
}

func TestTimerStepN(t *testing.T) {
	cpu := NewHostCPU()
	tm := newHostTimer(cpu, 1000)

	if tm.stepN(2, 0) {
		t.Fatalf("stepN(2, 0) reported the limit")
	}
	if !tm.stepN(5, 4) {
		t.Fatalf("stepN(5, 4) did not report the limit")
	}
	if got := tm.Ticks(); got != 4 {
		t.Fatalf("Ticks() = %d, want 4", got)
	}

	var calls int
	cpu.SetHandler(VectorLAPICTimer, func(uint8) { calls++ })
	cpu.EnableInterrupts()
	if calls != 4 {
		t.Fatalf("timer handler ran %d times, want 4", calls)
	}
}

func TestRunHeadlessStopsAfterTicks(t *testing.T) {
	var ticks atomic.Uint64
	boot := func(h HAL) error {
		cpu := h.CPU()
		cpu.SetHandler(h.Timer().Vector(), func(uint8) {
			ticks.Add(1)
			cpu.EndOfInterrupt()
		})
		for {
			cpu.EnableAndHalt()
		}
	}

	errc := make(chan error, 1)
	go func() {
		errc <- RunHeadless(context.Background(), boot, HeadlessConfig{
			Host:  HostConfig{TimerHz: 1000},
			Ticks: 20,
		})
	}()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("RunHeadless() = %v, want nil", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("RunHeadless did not stop")
	}
}

func TestRunHeadlessBootError(t *testing.T) {
	want := errors.New("no memory map")
	err := RunHeadless(context.Background(), func(HAL) error { return want }, HeadlessConfig{})
	if !errors.Is(err, want) {
		t.Fatalf("RunHeadless() = %v, want %v", err, want)
	}
}
