package task

import "sync/atomic"

var installed atomic.Pointer[Scheduler]

// Install makes s the scheduler used by SpawnTask and CurrentTask, for code
// that is not handed the scheduler explicitly. Passing nil uninstalls.
func Install(s *Scheduler) {
	installed.Store(s)
}

// Default returns the installed scheduler.
func Default() (*Scheduler, error) {
	s := installed.Load()
	if s == nil {
		return nil, ErrNotInstalled
	}
	return s, nil
}

// SpawnTask spawns b on the installed scheduler.
func SpawnTask[T any](b *Builder[T]) (TypedHandle[T], error) {
	s, err := Default()
	if err != nil {
		return TypedHandle[T]{}, err
	}
	return Spawn(s, b)
}

// CurrentTask returns the running task of the installed scheduler.
func CurrentTask() (Handle, error) {
	s, err := Default()
	if err != nil {
		return Handle{}, err
	}
	return s.Current()
}
