package simgen

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Columns is the column order of generated log files: time first, then the
// body states, then the driver inputs.
var Columns = []string{"time", "vx", "vy", "r", "delta", "throttle", "brake"}

// Options configures a generation batch.
type Options struct {
	Ts       float64 // sample time, s
	Duration float64 // per-run length, s
	Runs     int     // number of log files
	Seed     int64   // base seed; run i uses Seed+i
	Scenario string  // schedule name
	OutDir   string  // destination folder
}

func DefaultOptions() Options {
	return Options{
		Ts:       0.01,
		Duration: 60,
		Runs:     4,
		Seed:     1,
		Scenario: "mixed",
		OutDir:   "data",
	}
}

func (o Options) Validate() error {
	if o.Ts <= 0 {
		return fmt.Errorf("ts must be positive, got %f", o.Ts)
	}
	if o.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", o.Duration)
	}
	if o.Runs < 1 {
		return fmt.Errorf("runs must be at least 1, got %d", o.Runs)
	}
	if Schedule(o.Scenario, 0) == nil {
		return fmt.Errorf("unknown scenario %q", o.Scenario)
	}
	return nil
}

// Log is one simulated recording sampled at a fixed period.
type Log struct {
	Times    []float64
	States   []State
	Controls []Control
}

// Simulate runs the car under a phase schedule and records every sample.
// The recorded state/control pairs are simultaneous: controls are computed
// from the state they are applied to.
func Simulate(ctx context.Context, car *Car, phases []Phase, ts, duration float64) (*Log, error) {
	if len(phases) == 0 {
		return nil, fmt.Errorf("empty phase schedule")
	}
	steps := int(duration / ts)
	drv := NewDriver(phases)
	integ := NewRK4()
	x := State{phases[0].Speed, 0, 0}

	lg := &Log{
		Times:    make([]float64, 0, steps),
		States:   make([]State, 0, steps),
		Controls: make([]Control, 0, steps),
	}
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		t := float64(i) * ts
		u := drv.Control(x, t)
		lg.Times = append(lg.Times, t)
		lg.States = append(lg.States, x.Clone())
		lg.Controls = append(lg.Controls, Control{u[0], u[1], u[2]})

		x = integ.Step(car, x, u, t, ts)
		if !x.Valid() {
			return nil, fmt.Errorf("%w at t=%.2f", ErrUnstable, t)
		}
	}
	return lg, nil
}

// Generate simulates opts.Runs recordings in parallel and writes one CSV
// per run into OutDir. Returned paths are ordered by run index. The same
// options always produce identical files.
func Generate(ctx context.Context, opts Options) ([]string, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return nil, err
	}

	paths := make([]string, opts.Runs)
	errs := make([]error, opts.Runs)

	var wg sync.WaitGroup
	for i := 0; i < opts.Runs; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			phases := Schedule(opts.Scenario, opts.Seed+int64(idx))
			lg, err := Simulate(ctx, NewCar(), phases, opts.Ts, opts.Duration)
			if err != nil {
				errs[idx] = fmt.Errorf("run %d: %w", idx, err)
				return
			}
			path := filepath.Join(opts.OutDir, fmt.Sprintf("run_%03d.csv", idx))
			if err := WriteCSV(path, lg); err != nil {
				errs[idx] = fmt.Errorf("run %d: %w", idx, err)
				return
			}
			paths[idx] = path
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// WriteCSV writes one log with a header row in Columns order.
func WriteCSV(path string, lg *Log) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		f.Close()
		return err
	}
	row := make([]string, len(Columns))
	for i := range lg.Times {
		row[0] = strconv.FormatFloat(lg.Times[i], 'f', 6, 64)
		for j, v := range lg.States[i] {
			row[1+j] = strconv.FormatFloat(v, 'f', 6, 64)
		}
		for j, v := range lg.Controls[i] {
			row[4+j] = strconv.FormatFloat(v, 'f', 6, 64)
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
