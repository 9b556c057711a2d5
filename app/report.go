package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"orchid/kernel/task"

	"github.com/vmihailenco/msgpack/v5"
)

// reportSchema is bumped whenever Report changes incompatibly.
const reportSchema uint16 = 1

// Report is the state of a kernel run as seen by its main task.
type Report struct {
	Schema  uint16      `msgpack:"schema"`
	Version string      `msgpack:"version"`
	TimerHz int         `msgpack:"timer_hz"`
	Ticks   uint64      `msgpack:"ticks"`
	Frames  uint64      `msgpack:"frames"`
	Rallies uint64      `msgpack:"rallies"`
	Stats   task.Stats  `msgpack:"stats"`
	Tasks   []task.Info `msgpack:"tasks"`
}

// WriteReport encodes r as msgpack.
func WriteReport(w io.Writer, r *Report) error {
	r.Schema = reportSchema
	if err := msgpack.NewEncoder(w).Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// ReadReport decodes a report written by WriteReport.
func ReadReport(rd io.Reader) (Report, error) {
	var r Report
	if err := msgpack.NewDecoder(rd).Decode(&r); err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	if r.Schema != reportSchema {
		return Report{}, fmt.Errorf("decode report: schema %d, want %d", r.Schema, reportSchema)
	}
	return r, nil
}

// WriteReportFile replaces path with r atomically.
func WriteReportFile(path string, r *Report) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := WriteReport(f, r); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

func ReadReportFile(path string) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, err
	}
	defer f.Close()
	r, err := ReadReport(f)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Format writes r as a human readable summary and task table.
func (r *Report) Format(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "version\t%s\n", r.Version)
	fmt.Fprintf(tw, "timer\t%d Hz, %d ticks\n", r.TimerHz, r.Ticks)
	fmt.Fprintf(tw, "frames\t%d\n", r.Frames)
	fmt.Fprintf(tw, "rallies\t%d\n", r.Rallies)
	fmt.Fprintf(tw, "switches\t%d\n", r.Stats.Switches)
	fmt.Fprintf(tw, "preemptions\t%d\n", r.Stats.Preemptions)
	fmt.Fprintf(tw, "rebuilds\t%d\n", r.Stats.Rebuilds)
	fmt.Fprintf(tw, "idle halts\t%d\n", r.Stats.NothingToRun)
	fmt.Fprintf(tw, "generation\t%d\n", r.Stats.Generation)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "ID\tNAME\tPRIO\tSTATE")
	for _, t := range r.Tasks {
		state := "sleeping"
		if t.Waking {
			state = "waking"
		}
		if t.Current {
			state += ", current"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", t.ID, t.Name, t.Priority, state)
	}
	return tw.Flush()
}
