package verify

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Task is one independent query. It owns its solver from construction to
// Close.
type Task func(ctx context.Context) (*Result, error)

// RunTasks runs tasks with at most limit in flight (no limit when limit <= 0)
// and returns their results in input order. The first error cancels the
// context passed to the others.
func RunTasks(ctx context.Context, limit int, tasks ...Task) ([]*Result, error) {
	results := make([]*Result, len(tasks))
	g, gCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			res, err := task(gCtx)
			if err != nil {
				return fmt.Errorf("task %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
