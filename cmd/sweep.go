package cmd

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunSweep runs replicas independent copies of rc with seeds rc.Seed,
// rc.Seed+1, ... using at most parallel goroutines. Each replica owns its
// engine, network and RNG. The first failure cancels the rest.
func RunSweep(ctx context.Context, rc RunConfig, replicas, parallel int) ([]*RunResult, error) {
	results := make([]*RunResult, replicas)
	g, gCtx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i := 0; i < replicas; i++ {
		i := i
		replica := rc
		replica.Seed = rc.Seed + int64(i)
		g.Go(func() error {
			res, err := RunReplica(gCtx, replica)
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
