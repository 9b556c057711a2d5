package task

import "code.hybscloud.com/atomix"

// Info is a snapshot of one task.
type Info struct {
	ID       ID       `msgpack:"id"`
	Name     string   `msgpack:"name"`
	Priority Priority `msgpack:"priority"`
	Waking   bool     `msgpack:"waking"`
	State    uint64   `msgpack:"state"`
	Current  bool     `msgpack:"current"`
}

// Stats are scheduler counters since construction.
type Stats struct {
	Switches     uint64 `msgpack:"switches"`
	Rebuilds     uint64 `msgpack:"rebuilds"`
	Preemptions  uint64 `msgpack:"preemptions"`
	NothingToRun uint64 `msgpack:"nothing_to_run"`
	Generation   uint64 `msgpack:"generation"`
}

// counters are statistics only; nothing synchronizes on them.
type counters struct {
	switches     atomix.Uint64
	rebuilds     atomix.Uint64
	preemptions  atomix.Uint64
	nothingToRun atomix.Uint64
}
