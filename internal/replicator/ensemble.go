package replicator

import (
	"errors"
	"fmt"
	"sync"

	"github.com/san-kum/replicator/internal/dynamo"
)

// Ensemble integrates one payoff matrix from many initial states, each on its
// own Solver. Runs never write the side-channel file.
type Ensemble struct {
	settings   Settings
	workers    int
	newMetrics func() []dynamo.Metric
}

// NewEnsemble builds an ensemble with at most workers concurrent solves.
// newMetrics, if non-nil, supplies fresh metrics for every run.
func NewEnsemble(settings Settings, workers int, newMetrics func() []dynamo.Metric) *Ensemble {
	settings.OutputPath = ""
	if workers < 1 {
		workers = 1
	}
	return &Ensemble{settings: settings, workers: workers, newMetrics: newMetrics}
}

// Run returns one trajectory per initial state, in input order. If any run
// fails, the joined errors are returned with the run index attached.
func (e *Ensemble) Run(payoff [][]float64, totalTime float64, inits [][]float64) ([]*Trajectory, error) {
	results := make([]*Trajectory, len(inits))
	errs := make([]error, len(inits))

	parallelFor(len(inits), e.workers, func(start, end int) {
		for idx := start; idx < end; idx++ {
			s := New(e.settings)
			if e.newMetrics != nil {
				for _, m := range e.newMetrics() {
					s.AddMetric(m)
				}
			}
			traj, err := s.Solve(payoff, totalTime, inits[idx])
			if err != nil {
				errs[idx] = fmt.Errorf("run %d: %w", idx, err)
				continue
			}
			results[idx] = traj
		}
	})

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return results, nil
}

// parallelFor splits [0, n) into at most workers contiguous chunks.
func parallelFor(n, workers int, fn func(start, end int)) {
	if n == 0 {
		return
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
