// Package app boots the kernel on a HAL: it builds the scheduler, installs the
// timer handler and the panic screen, spawns the system tasks and turns the
// boot context into the main task loop.
package app

import (
	"fmt"

	"orchid/config"
	"orchid/gui"
	"orchid/hal"
	"orchid/internal/buildinfo"
	"orchid/kernel/interrupts"
	"orchid/kernel/klog"
	"orchid/kernel/task"
	"orchid/kernel/triplebuffer"
)

const (
	// frameHz is the rate of Frame events sent to the main task.
	frameHz = 30
	// rallyLength is the number of hits in one worker rally.
	rallyLength = 8
	windowGap   = 4
)

type EventKind uint8

const (
	EventFrame EventKind = iota + 1
)

// Event is a message to the main task.
type Event struct {
	Kind EventKind
	Tick uint64
}

// Kernel is one boot of the system.
type Kernel struct {
	cfg     config.Config
	colored bool

	log     *klog.Logger
	sched   *task.Scheduler
	timer   *interrupts.Timer
	comp    *gui.Compositor
	windows []task.TypedHandle[gui.Frame]
	servers []task.TypedHandle[ball]

	hz      int
	frames  uint64
	rallies uint64

	reportOut *triplebuffer.Producer[Report]
	reportIn  *triplebuffer.Consumer[Report]
}

// New prepares a kernel for cfg. colored enables log level colors.
func New(cfg config.Config, colored bool) *Kernel {
	out, in := triplebuffer.New(Report{}).Split()
	return &Kernel{cfg: cfg, colored: colored, reportOut: out, reportIn: in}
}

// Boot is a hal.BootFunc. It returns only if initialization fails.
func (k *Kernel) Boot(h hal.HAL) error {
	cpu := h.CPU()
	k.log = klog.New(h.Logger(), k.cfg.LogLevel(), k.colored)
	opts, err := k.cfg.TaskOptions(k.log)
	if err != nil {
		return err
	}
	k.sched = task.New(cpu, opts)
	recv, self, err := task.Initialize[Event](k.sched)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer k.sched.RecoverPanic()
	task.Install(k.sched)
	k.sched.SetPanicHandler(panicScreen(h, k.log))

	if err := k.spawnDesktop(h.Display()); err != nil {
		return err
	}
	if err := k.spawnWorkers(k.cfg.Demo.Workers); err != nil {
		return err
	}

	k.hz = h.Timer().Hz()
	every := uint64(k.hz / frameHz)
	if every == 0 {
		every = 1
	}
	k.timer = interrupts.InstallTimer(cpu, k.sched, k.log, func(tick uint64) {
		if tick%every == 0 {
			self.Send(Event{Kind: EventFrame, Tick: tick})
		}
	})

	k.log.Infof("orchid %s: %d Hz timer, frame every %d ticks, %d windows, %d worker pairs",
		buildinfo.Short(), k.hz, every, len(k.windows), len(k.servers))
	cpu.EnableInterrupts()
	k.run(recv)
	return nil
}

func (k *Kernel) spawnDesktop(d hal.Display) error {
	n := k.cfg.Demo.Windows
	if n == 0 || d == nil || d.Framebuffer() == nil {
		return nil
	}
	fb := d.Framebuffer()
	k.comp = gui.NewCompositor(fb, k.log)
	ch, err := task.Spawn(k.sched, k.comp.Builder())
	if err != nil {
		return fmt.Errorf("spawn compositor: %w", err)
	}

	cols := min(n, 2)
	rows := (n + cols - 1) / cols
	w := max((fb.Width()-windowGap*(cols+1))/cols, 8)
	h := max((fb.Height()-windowGap*(rows+1))/rows, 8)
	for i := 0; i < n; i++ {
		x := windowGap + (i%cols)*(w+windowGap)
		y := windowGap + (i/cols)*(h+windowGap)
		win := gui.NewWindow(fmt.Sprintf("WINDOW %d", i+1), x, y, w, h)
		k.comp.Add(win, ch)
		wh, err := task.Spawn(k.sched, win.Builder())
		if err != nil {
			return fmt.Errorf("spawn window %d: %w", i+1, err)
		}
		k.windows = append(k.windows, wh)
	}
	return nil
}

// run is the main task loop.
func (k *Kernel) run(recv *task.Receiver[Event]) {
	for {
		ev := recv.DequeueOrWait()
		switch ev.Kind {
		case EventFrame:
			k.frames++
			for _, w := range k.windows {
				w.Send(gui.Frame{N: k.frames})
			}
			for _, s := range k.servers {
				s.Send(ball{hits: rallyLength})
			}
			k.publishReport()
		default:
			k.log.Warnf("main: unknown event %d", ev.Kind)
		}
	}
}

func (k *Kernel) publishReport() {
	tasks, err := k.sched.Tasks()
	if err != nil {
		k.log.Warnf("main: report skipped: %v", err)
		return
	}
	r := k.reportOut.CurrentBuffer()
	*r = Report{
		Version: buildinfo.Short(),
		TimerHz: k.hz,
		Ticks:   k.timer.Ticks(),
		Frames:  k.frames,
		Rallies: k.rallies,
		Stats:   k.sched.Stats(),
		Tasks:   tasks,
	}
	k.reportOut.Publish()
}

// Report returns the newest report published by the main task. It must be
// called from a single goroutine.
func (k *Kernel) Report() Report {
	return *k.reportIn.Read()
}
