//go:build !tinygo

package hal

import (
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/lfq"
)

// vectorRingSize bounds the number of undelivered interrupts. Further raises
// are dropped, like a LAPIC coalescing an already pending vector.
const vectorRingSize = 64

// Register values the boot context starts with.
const (
	hostCR3      = 0x1000
	hostKernelCS = 0x08
	hostKernelSS = 0x10
)

// HostCPU emulates a single x86_64 core on the host.
//
// Exactly one goroutine holds the CPU at a time. A context switch saves the
// live register file, loads the target's and hands the CPU to the goroutine
// bound to the target context, starting it at RIP on first use. Interrupts
// raised by other goroutines are queued and delivered on the holder at the
// points where real hardware would take them: when IF becomes set, while
// halted and on Pause.
//
// Only the goroutine holding the CPU may call methods other than Raise and
// the counters.
type HostCPU struct {
	regs     TaskContext
	handlers [256]InterruptHandler
	threads  map[*TaskContext]*hostThread

	raiseMu sync.Mutex
	vectors lfq.SPSC[uint8]
	wake    chan struct{}

	switches  atomix.Uint64
	delivered atomix.Uint64
	eois      atomix.Uint64
	dropped   atomix.Uint64
}

type hostThread struct {
	resume chan struct{}
}

// NewHostCPU returns a CPU held by the calling goroutine, with interrupts
// disabled.
func NewHostCPU() *HostCPU {
	c := &HostCPU{
		threads: make(map[*TaskContext]*hostThread),
		wake:    make(chan struct{}, 1),
	}
	c.vectors.Init(vectorRingSize)
	c.regs.CR3 = hostCR3
	c.regs.CS = hostKernelCS
	c.regs.SS = hostKernelSS
	c.regs.RFlags = flagReserved
	c.regs.SetMXCSR(DefaultMXCSR)
	return c
}

// Raise queues vector for delivery. It may be called from any goroutine and
// reports false if the vector was dropped.
func (c *HostCPU) Raise(vector uint8) bool {
	c.raiseMu.Lock()
	err := c.vectors.Enqueue(&vector)
	c.raiseMu.Unlock()
	if err != nil {
		c.dropped.Add(1)
		return false
	}
	select {
	case c.wake <- struct{}{}:
	default:
	}
	return true
}

func (c *HostCPU) DisableInterrupts() bool {
	was := c.regs.RFlags&FlagIF != 0
	c.regs.RFlags &^= FlagIF
	return was
}

func (c *HostCPU) EnableInterrupts() {
	c.regs.RFlags |= FlagIF
	c.deliverPending()
}

func (c *HostCPU) RestoreInterrupts(enabled bool) {
	if enabled {
		c.EnableInterrupts()
	}
}

func (c *HostCPU) InterruptsEnabled() bool {
	return c.regs.RFlags&FlagIF != 0
}

func (c *HostCPU) EnableAndHalt() {
	c.regs.RFlags |= FlagIF
	c.waitForInterrupt()
}

func (c *HostCPU) Halt() {
	if c.regs.RFlags&FlagIF == 0 {
		// Nothing can wake a core halted with interrupts masked.
		select {}
	}
	c.waitForInterrupt()
}

func (c *HostCPU) Pause() {
	c.deliverPending()
}

func (c *HostCPU) SetHandler(vector uint8, h InterruptHandler) {
	c.handlers[vector] = h
}

func (c *HostCPU) EndOfInterrupt() {
	c.eois.Add(1)
}

func (c *HostCPU) CaptureContext(ctx *TaskContext) {
	ctx.CR3 = c.regs.CR3
	ctx.CS = c.regs.CS
	ctx.SS = c.regs.SS
	ctx.FS = c.regs.FS
	ctx.GS = c.regs.GS
}

func (c *HostCPU) SwitchContext(next, current *TaskContext) {
	*current = c.regs
	c.regs = *next

	self := c.threads[current]
	if self == nil {
		// First switch away from a context: bind it to the calling goroutine.
		self = &hostThread{resume: make(chan struct{}, 1)}
		c.threads[current] = self
	}
	target := c.threads[next]
	if target == nil {
		target = c.start(next)
	}
	c.switches.Add(1)

	target.resume <- struct{}{}
	<-self.resume
}

// start binds a new goroutine to ctx. The goroutine waits for its first
// resume, then jumps to the entry point in RIP.
func (c *HostCPU) start(ctx *TaskContext) *hostThread {
	t := &hostThread{resume: make(chan struct{}, 1)}
	c.threads[ctx] = t
	go func() {
		<-t.resume
		fn, err := lookupEntry(c.regs.RIP)
		if err != nil {
			panic(err)
		}
		rdi, rsi := c.regs.RDI, c.regs.RSI
		c.deliverPending()
		fn(rdi, rsi)
		// An entry point has no caller to return to.
		c.regs.RFlags &^= FlagIF
		c.Halt()
	}()
	return t
}

func (c *HostCPU) waitForInterrupt() {
	for !c.deliverPending() {
		<-c.wake
	}
}

// deliverPending dispatches queued vectors while IF is set and reports
// whether any was delivered.
func (c *HostCPU) deliverPending() bool {
	delivered := false
	for c.regs.RFlags&FlagIF != 0 {
		v, err := c.vectors.Dequeue()
		if err != nil {
			break
		}
		c.dispatch(v)
		delivered = true
	}
	return delivered
}

func (c *HostCPU) dispatch(vector uint8) {
	saved := c.regs.RFlags
	c.regs.RFlags &^= FlagIF
	c.delivered.Add(1)
	if h := c.handlers[vector]; h != nil {
		h(vector)
	}
	// The handler may have switched away; by now this context is running
	// again, and the interrupt return restores its flags.
	c.regs.RFlags = saved
}

// Switches returns the number of context switches performed.
func (c *HostCPU) Switches() uint64 { return c.switches.LoadAcquire() }

// Delivered returns the number of interrupts dispatched to handlers.
func (c *HostCPU) Delivered() uint64 { return c.delivered.LoadAcquire() }

// EOIs returns the number of end-of-interrupt signals.
func (c *HostCPU) EOIs() uint64 { return c.eois.LoadAcquire() }

// Dropped returns the number of raised vectors lost to a full ring.
func (c *HostCPU) Dropped() uint64 { return c.dropped.LoadAcquire() }
