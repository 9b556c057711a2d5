package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var ErrNotImplemented = errors.New("not implemented")

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Interrupt vectors used by the kernel.
const (
	VectorLAPICTimer uint8 = 0x41
)

// InterruptHandler services one vector. It runs with interrupts disabled on
// the interrupted context.
type InterruptHandler func(vector uint8)

// CPU is the processor the kernel runs on: interrupt flag control, halting,
// vector dispatch and the raw context switch.
type CPU interface {
	// DisableInterrupts clears IF and reports whether it was set before.
	DisableInterrupts() bool
	// EnableInterrupts sets IF. Pending interrupts are delivered immediately.
	EnableInterrupts()
	// RestoreInterrupts sets IF if enabled is true and leaves it clear otherwise.
	RestoreInterrupts(enabled bool)
	InterruptsEnabled() bool

	// EnableAndHalt atomically sets IF and halts until the next interrupt
	// has been serviced.
	EnableAndHalt()
	// Halt stops the CPU until the next interrupt. With IF clear it never
	// returns.
	Halt()
	// Pause is a spin-wait hint. Pending interrupts may be delivered.
	Pause()

	SetHandler(vector uint8, h InterruptHandler)
	EndOfInterrupt()

	// CaptureContext copies the address space root and segment selectors of
	// the running context into ctx.
	CaptureContext(ctx *TaskContext)
	// SwitchContext saves the running register file into current and resumes
	// next. It returns when current is resumed by a later switch.
	SwitchContext(next, current *TaskContext)
}

// Timer is the periodic interrupt source driving preemption.
type Timer interface {
	Vector() uint8
	Hz() int
	// Ticks returns the number of timer interrupts raised so far.
	Ticks() uint64
}

// HAL provides the only contact point between the OS and the outside world.
type HAL interface {
	Logger() Logger
	CPU() CPU
	Timer() Timer
	Display() Display
}
