package runner

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// LintMany runs independent passes over several targets with at most jobs
// in flight. Per-pass failures land in Result.Err and do not stop the other
// passes; only context cancellation aborts the run. Results come back in
// request order.
func (r *Runner) LintMany(ctx context.Context, reqs []Request, jobs int) ([]Result, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	if jobs > len(reqs) {
		jobs = len(reqs)
	}

	for _, req := range reqs {
		r.emit(Event{File: req.Path, Status: StatusQueued})
	}

	results := make([]Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.Lint(gctx, req)
			res.Err = err
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// SortRequests orders requests by path for deterministic runs.
func SortRequests(reqs []Request) {
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].Path < reqs[j].Path })
}
