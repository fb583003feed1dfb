package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Batch runs independent jobs on a bounded number of goroutines.
type Batch struct {
	workers int
}

// NewBatch returns a batch runner. workers < 1 means GOMAXPROCS.
func NewBatch(workers int) *Batch {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Batch{workers: workers}
}

// Run returns results in job order. The first failing job cancels the
// rest and its error is returned.
func (b *Batch) Run(ctx context.Context, jobs []Job) ([]*Result, error) {
	results := make([]*Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, job := range jobs {
		g.Go(func() error {
			res, err := Run(ctx, job)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
