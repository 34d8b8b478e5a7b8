// Package train fits graph models to logged data: a seeded epoch/minibatch
// loop over segment samples, SGD or Adam updates, a ridge least-squares
// warm start, and a small grid-search tuner.
package train

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/san-kum/fordyn/internal/dataset"
	"github.com/san-kum/fordyn/internal/graph"
)

// Default hyperparameters for Options zero values.
const (
	DefaultEpochs    = 100
	DefaultBatchSize = 128
	DefaultLR        = 0.001
	DefaultValSplit  = 0.2
)

// Options configures one training run. Zero values fall back to the
// defaults above; Optimizer defaults to adam.
type Options struct {
	Epochs    int     `yaml:"epochs"`
	BatchSize int     `yaml:"batch_size"`
	LR        float64 `yaml:"lr"`
	Optimizer string  `yaml:"optimizer"` // "adam" or "sgd"
	ValSplit  float64 `yaml:"val_split"`
	Seed      int64   `yaml:"seed"`
	LRDecay   bool    `yaml:"lr_decay"`

	// Events receives one progress event per epoch when non-nil. Sends
	// block, so the channel should be buffered or drained promptly.
	Events chan<- Event `yaml:"-"`
}

func (o *Options) fill() {
	if o.Epochs <= 0 {
		o.Epochs = DefaultEpochs
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.LR <= 0 {
		o.LR = DefaultLR
	}
	if o.Optimizer == "" {
		o.Optimizer = "adam"
	}
	if o.ValSplit <= 0 || o.ValSplit >= 1 {
		o.ValSplit = DefaultValSplit
	}
}

// Event is one epoch's progress snapshot.
type Event struct {
	Epoch      int
	Epochs     int
	TrainTotal float64
	ValTotal   float64
	Train      map[string]float64
	Val        map[string]float64
	Elapsed    time.Duration
}

// Result is the outcome of a completed training run.
type Result struct {
	Epochs       int
	TrainSamples int
	ValSamples   int
	History      []Event
	Duration     time.Duration
}

// Final returns the last epoch's event, or a zero event for an empty run.
func (r *Result) Final() Event {
	if len(r.History) == 0 {
		return Event{}
	}
	return r.History[len(r.History)-1]
}

type sampleRef struct {
	run  int
	step int
}

// Trainer owns the bound segment evaluators and the sample split for one
// model/dataset pair.
type Trainer struct {
	model *graph.Model
	opts  Options
	runs  []*graph.Run
	train []sampleRef
	val   []sampleRef
}

// New binds every dataset segment to the model and splits the samples
// sequentially: the leading share trains, the trailing share validates.
// Tap windows and one-step targets never cross segment boundaries. A
// segment too short for the model's windows is an error, not a skip.
func New(m *graph.Model, ds *dataset.Dataset, opts Options) (*Trainer, error) {
	opts.fill()
	if len(ds.Segments) == 0 {
		return nil, fmt.Errorf("train: dataset has no segments")
	}

	t := &Trainer{model: m, opts: opts}
	var samples []sampleRef
	for i := range ds.Segments {
		seg := &ds.Segments[i]
		run, err := m.Bind(seg.Series)
		if err != nil {
			return nil, fmt.Errorf("train: segment %s: %w", seg.Name, err)
		}
		for s := 0; s < run.TrainSteps(); s++ {
			samples = append(samples, sampleRef{run: i, step: s})
		}
		t.runs = append(t.runs, run)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("train: no trainable samples in dataset")
	}

	cut := len(samples) - int(float64(len(samples))*opts.ValSplit)
	if cut < 1 {
		cut = 1
	}
	t.train = samples[:cut]
	t.val = samples[cut:]
	return t, nil
}

// TrainSamples returns the number of training samples after the split.
func (t *Trainer) TrainSamples() int { return len(t.train) }

// ValSamples returns the number of validation samples after the split.
func (t *Trainer) ValSamples() int { return len(t.val) }

func (t *Trainer) optimizer() Optimizer {
	if t.opts.Optimizer == "sgd" {
		return NewSGD(t.opts.LR)
	}
	adam := NewAdam(t.opts.LR)
	if t.opts.LRDecay {
		batches := (len(t.train) + t.opts.BatchSize - 1) / t.opts.BatchSize
		adam.TotalSteps = t.opts.Epochs * batches
	}
	return adam
}

// Run executes the full training loop. Cancellation is honored between
// batches; the partial result is returned alongside the context error.
func (t *Trainer) Run(ctx context.Context) (*Result, error) {
	opt := t.optimizer()
	rng := rand.New(rand.NewSource(t.opts.Seed))
	order := make([]sampleRef, len(t.train))
	copy(order, t.train)

	lossNames := t.model.LossNames()
	lossBuf := make([]float64, len(lossNames))
	params := t.model.Params()

	res := &Result{
		Epochs:       t.opts.Epochs,
		TrainSamples: len(t.train),
		ValSamples:   len(t.val),
	}
	start := time.Now()

	for epoch := 1; epoch <= t.opts.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		trainSum := make([]float64, len(lossNames))
		for b := 0; b < len(order); b += t.opts.BatchSize {
			select {
			case <-ctx.Done():
				res.Duration = time.Since(start)
				return res, ctx.Err()
			default:
			}

			end := b + t.opts.BatchSize
			if end > len(order) {
				end = len(order)
			}
			batch := order[b:end]

			t.model.ZeroGrad()
			scale := 1.0 / float64(len(batch))
			for _, s := range batch {
				run := t.runs[s.run]
				run.Forward(s.step)
				run.Losses(lossBuf)
				for li, v := range lossBuf {
					trainSum[li] += v
				}
				run.Backward(scale)
			}
			opt.Step(params)
		}

		ev := Event{
			Epoch:  epoch,
			Epochs: t.opts.Epochs,
			Train:  make(map[string]float64, len(lossNames)),
			Val:    make(map[string]float64, len(lossNames)),
		}
		for li, name := range lossNames {
			mean := trainSum[li] / float64(len(order))
			ev.Train[name] = mean
			ev.TrainTotal += mean
		}
		valSum := t.evaluate(t.val, lossBuf)
		for li, name := range lossNames {
			ev.Val[name] = valSum[li]
			ev.ValTotal += valSum[li]
		}
		ev.Elapsed = time.Since(start)

		res.History = append(res.History, ev)
		if t.opts.Events != nil {
			t.opts.Events <- ev
		}
	}

	res.Duration = time.Since(start)
	return res, nil
}

// evaluate returns per-term mean losses over the given samples, in
// LossNames order. An empty sample set yields zeros.
func (t *Trainer) evaluate(samples []sampleRef, lossBuf []float64) []float64 {
	sums := make([]float64, len(lossBuf))
	if len(samples) == 0 {
		return sums
	}
	for _, s := range samples {
		run := t.runs[s.run]
		run.Forward(s.step)
		run.Losses(lossBuf)
		for li, v := range lossBuf {
			sums[li] += v
		}
	}
	for li := range sums {
		sums[li] /= float64(len(samples))
	}
	return sums
}

// Evaluate computes per-term mean validation losses with the current
// weights, without touching them.
func (t *Trainer) Evaluate() map[string]float64 {
	lossNames := t.model.LossNames()
	buf := make([]float64, len(lossNames))
	set := t.val
	if len(set) == 0 {
		set = t.train
	}
	sums := t.evaluate(set, buf)
	out := make(map[string]float64, len(lossNames))
	for li, name := range lossNames {
		out[name] = sums[li]
	}
	return out
}
