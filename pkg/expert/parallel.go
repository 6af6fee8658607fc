package expert

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Parallel runs tasks concurrently and waits for all of them to settle.
// The first error cancels the context passed to the remaining tasks and is returned.
func Parallel(ctx context.Context, tasks ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error {
			return task(gctx)
		})
	}
	return g.Wait()
}
