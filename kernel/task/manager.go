package task

import "orchid/hal"

// switchRequest names the contexts of one switch. The raw switch happens
// after the scheduler lock is released.
type switchRequest struct {
	from, to      *Task
	current, next *hal.TaskContext
}

// manager holds the task table and the run queue. It is only touched with
// the scheduler lock held and interrupts disabled.
type manager struct {
	tasks []*Task // in ID order

	// queue is the current round: the waking tasks of the highest waking
	// priority. Rebuilt when the generation moves past cachedGen.
	queue     []*Task
	cachedGen uint64

	current *Task
	stats   *counters
}

func newManager(main *Task, stats *counters) *manager {
	return &manager{
		tasks:   []*Task{main},
		current: main,
		stats:   stats,
	}
}

func (m *manager) add(t *Task) {
	m.tasks = append(m.tasks, t)
}

// refresh rebuilds the run queue if gen is newer than the cached generation.
func (m *manager) refresh(gen uint64) {
	if gen <= m.cachedGen {
		return
	}
	m.queue = m.queue[:0]
	var top Priority
	for _, t := range m.tasks {
		if !t.handle.Waking() {
			continue
		}
		p := t.handle.Priority()
		switch {
		case len(m.queue) == 0 || p > top:
			top = p
			m.queue = append(m.queue[:0], t)
		case p == top:
			m.queue = append(m.queue, t)
		}
	}
	m.cachedGen = gen
	m.stats.rebuilds.AddRelaxed(1)
}

// startContextSwitch rotates the round by one and makes its head current.
func (m *manager) startContextSwitch(gen uint64) (switchRequest, error) {
	m.refresh(gen)
	if len(m.queue) == 0 {
		return switchRequest{}, ErrNothingToRun
	}
	head := m.queue[0]
	copy(m.queue, m.queue[1:])
	m.queue[len(m.queue)-1] = head

	next := m.queue[0]
	req := switchRequest{
		from:    m.current,
		to:      next,
		current: m.current.ctx,
		next:    next.ctx,
	}
	m.current = next
	return req, nil
}

func (m *manager) snapshot() []Info {
	out := make([]Info, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, Info{
			ID:       t.handle.ID(),
			Name:     t.handle.Name(),
			Priority: t.handle.Priority(),
			Waking:   t.handle.Waking(),
			State:    t.handle.LoadState(),
			Current:  t == m.current,
		})
	}
	return out
}
