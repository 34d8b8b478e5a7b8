package train

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/fordyn/internal/dataset"
	"github.com/san-kum/fordyn/internal/graph"
)

// Candidate is one evaluated hyperparameter combination.
type Candidate struct {
	LR        float64
	BatchSize int
	Score     float64
}

// Tune grid-searches learning rate and batch size, training a fresh model
// from build for every combination and scoring it by final validation
// loss. Candidates that fail to build or train are skipped; cancellation
// stops the sweep and returns the best result so far.
func Tune(
	ctx context.Context,
	build func() (*graph.Model, error),
	ds *dataset.Dataset,
	base Options,
	lrs []float64,
	batches []int,
) (Options, []Candidate, error) {

	if len(lrs) == 0 || len(batches) == 0 {
		return base, nil, fmt.Errorf("tune: empty search space")
	}

	best := math.Inf(1)
	bestOpts := base
	found := false
	var tried []Candidate

	for _, lr := range lrs {
		for _, bs := range batches {
			if err := ctx.Err(); err != nil {
				return bestOpts, tried, err
			}

			opts := base
			opts.LR = lr
			opts.BatchSize = bs
			opts.Events = nil

			m, err := build()
			if err != nil {
				continue
			}
			tr, err := New(m, ds, opts)
			if err != nil {
				continue
			}
			res, err := tr.Run(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return bestOpts, tried, ctx.Err()
				}
				continue
			}

			score := res.Final().ValTotal
			if tr.ValSamples() == 0 {
				score = res.Final().TrainTotal
			}
			tried = append(tried, Candidate{LR: lr, BatchSize: bs, Score: score})

			if score < best {
				best = score
				bestOpts = opts
				found = true
			}
		}
	}

	if !found {
		return base, tried, fmt.Errorf("tune: no candidate trained successfully")
	}
	return bestOpts, tried, nil
}
