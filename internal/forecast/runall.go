package forecast

import (
	"context"

	"golang.org/x/sync/errgroup"

	"budgetcast/internal/log"
)

// RunAll runs every plan concurrently, each on its own clone of base. base is
// never mutated. Results are returned in plan order; the first failure cancels
// the remaining runs.
func RunAll(ctx context.Context, base *State, logger *log.Logger, plans []Options) ([]*Result, error) {
	results := make([]*Result, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	for i, opts := range plans {
		sim := NewSimulation(base.Clone(), logger)
		g.Go(func() error {
			res, err := Run(gctx, sim, opts)
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
