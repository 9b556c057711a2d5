package task

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

var (
	// ErrLockContended reports that the scheduler lock was held. It is a
	// would-block condition: the caller may retry later.
	ErrLockContended = fmt.Errorf("task: scheduler lock contended: %w", iox.ErrWouldBlock)

	ErrNotInitialized     = errors.New("task: scheduler not initialized")
	ErrAlreadyInitialized = errors.New("task: scheduler already initialized")

	// ErrNothingToRun means no task is waking. The idle task makes this
	// impossible unless its state was changed by hand.
	ErrNothingToRun = errors.New("task: nothing to run")

	ErrNotInstalled = errors.New("task: no scheduler installed")

	// ErrArgUnused is returned by Spawn for a builder whose entry function
	// takes no argument but had one set with SetArg.
	ErrArgUnused = errors.New("task: argument set for an entry function without one")

	// ErrTaskReturned is the panic value reported when a task entry function
	// returns.
	ErrTaskReturned = errors.New("task: entry function returned")
)

// IsWouldBlock reports whether err is a transient failure worth retrying.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}
