package scene

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one build in a batch.
type Result struct {
	Level       *Level
	Diagnostics *Diagnostics
	Err         error
}

// BuildMany runs independent builds in parallel. Results keep input order.
// A failed build is reported in its Result and does not stop the others;
// the returned error is non-nil only when ctx is cancelled.
func BuildMany(ctx context.Context, jobs []BuildOptions, limit int) ([]Result, error) {
	results := make([]Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, opts := range jobs {
		i, opts := i, opts
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			level, diag, err := Build(opts)
			results[i] = Result{Level: level, Diagnostics: diag, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
