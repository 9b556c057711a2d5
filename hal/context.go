package hal

import "encoding/binary"

// TaskContext is the saved register image of a suspended task. The layout is
// fixed; the switch routine addresses fields by the Offset constants below.
//
// On hardware the struct must be allocated 16-byte aligned for fxsave.
type TaskContext struct {
	CR3       uint64
	RIP       uint64
	RFlags    uint64
	reserved1 uint64

	CS uint64
	SS uint64
	FS uint64
	GS uint64

	RAX uint64
	RBX uint64
	RCX uint64
	RDX uint64
	RDI uint64
	RSI uint64
	RSP uint64
	RBP uint64

	R8  uint64
	R9  uint64
	R10 uint64
	R11 uint64
	R12 uint64
	R13 uint64
	R14 uint64
	R15 uint64

	FXSave [512]byte
}

const (
	OffsetCR3    = 0x00
	OffsetRIP    = 0x08
	OffsetRFlags = 0x10
	OffsetCS     = 0x20
	OffsetSS     = 0x28
	OffsetFS     = 0x30
	OffsetGS     = 0x38
	OffsetRAX    = 0x40
	OffsetRBX    = 0x48
	OffsetRCX    = 0x50
	OffsetRDX    = 0x58
	OffsetRDI    = 0x60
	OffsetRSI    = 0x68
	OffsetRSP    = 0x70
	OffsetRBP    = 0x78
	OffsetR8     = 0x80
	OffsetR15    = 0xB8
	OffsetFXSave = 0xC0

	TaskContextSize = 0x2C0
)

const (
	// FlagIF is the interrupt enable bit of RFLAGS.
	FlagIF uint64 = 1 << 9
	// flagReserved is bit 1 of RFLAGS, which always reads as one.
	flagReserved uint64 = 1 << 1

	// InitialRFlags is the flags image of a task that has never run: IF set.
	InitialRFlags = FlagIF | flagReserved

	// DefaultMXCSR masks all SSE exceptions and rounds to nearest.
	DefaultMXCSR uint32 = 0x1F80

	mxcsrOffset = 24
)

// MXCSR returns the SSE control word stored in the FX area.
func (c *TaskContext) MXCSR() uint32 {
	return binary.LittleEndian.Uint32(c.FXSave[mxcsrOffset:])
}

// SetMXCSR stores v as the SSE control word in the FX area.
func (c *TaskContext) SetMXCSR(v uint32) {
	binary.LittleEndian.PutUint32(c.FXSave[mxcsrOffset:], v)
}

// InterruptsEnabled reports whether IF is set in the saved flags.
func (c *TaskContext) InterruptsEnabled() bool {
	return c.RFlags&FlagIF != 0
}
