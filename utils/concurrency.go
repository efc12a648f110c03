package utils

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Bounded calls fn for every index in [0, n) with at most limit calls in
// flight. The first error cancels the context passed to the remaining calls
// and is returned once every started call has finished.
func Bounded(ctx context.Context, limit, n int, fn func(ctx context.Context, i int) error) error {
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
