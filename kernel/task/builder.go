package task

import "fmt"

const (
	// DefaultStackSize is used by NewBuilder unless the scheduler options
	// override it.
	DefaultStackSize = 512 << 10
	// DefaultArgStackSize is used by NewBuilderWithArg.
	DefaultArgStackSize = 128 << 10
)

// Builder describes a task to spawn. Setters return the builder for chaining.
type Builder[T any] struct {
	name      string
	start     func(r *Receiver[T], arg any)
	arg       any
	takesArg  bool
	priority  Priority
	hasPrio   bool
	stackSize int
	waking    bool
}

// NewBuilder describes a task running main with its receiver.
func NewBuilder[T any](name string, main func(*Receiver[T])) *Builder[T] {
	return &Builder[T]{
		name:   name,
		start:  func(r *Receiver[T], _ any) { main(r) },
		waking: true,
	}
}

// NewBuilderWithArg describes a task running main with its receiver and arg.
// The argument is boxed into the task's context and handed over on first run.
func NewBuilderWithArg[T, U any](name string, main func(*Receiver[T], *U), arg *U) *Builder[T] {
	return &Builder[T]{
		name: name,
		start: func(r *Receiver[T], a any) {
			u, ok := a.(*U)
			if !ok {
				panic(fmt.Sprintf("task %q: argument is %T, want %T", name, a, (*U)(nil)))
			}
			main(r, u)
		},
		arg:       arg,
		takesArg:  true,
		stackSize: DefaultArgStackSize,
		waking:    true,
	}
}

func (b *Builder[T]) SetPriority(p Priority) *Builder[T] {
	b.priority = p
	b.hasPrio = true
	return b
}

func (b *Builder[T]) SetStackSize(n int) *Builder[T] {
	b.stackSize = n
	return b
}

// SetWaking sets whether the task is runnable as soon as it is spawned.
func (b *Builder[T]) SetWaking(waking bool) *Builder[T] {
	b.waking = waking
	return b
}

// SetArg replaces the argument. Its type is checked when the task first runs;
// a mismatch panics the kernel. Builders from NewBuilder take no argument and
// fail to spawn once one is set.
func (b *Builder[T]) SetArg(arg any) *Builder[T] {
	b.arg = arg
	return b
}

func (b *Builder[T]) Name() string { return b.name }
