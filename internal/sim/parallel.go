package sim

import (
	"context"
	"sync"
)

// Job builds one independent closed loop. Controllers are single-threaded,
// so every job must construct its own.
type Job struct {
	Name  string
	Build func() (*Simulator, Scenario, error)
}

// RunParallel runs every job on its own goroutine and returns the results
// in job order. The first error wins.
func RunParallel(ctx context.Context, jobs []Job) ([]*Result, error) {
	results := make([]*Result, len(jobs))
	errs := make([]error, len(jobs))

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(idx int, job Job) {
			defer wg.Done()

			s, sc, err := job.Build()
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = s.Run(ctx, sc)
		}(i, job)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
