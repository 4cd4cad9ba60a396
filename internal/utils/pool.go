package utils

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// MapWithConcurrency runs fn over items with at most limit calls in flight.
// Results keep the input order. The first error cancels the shared context
// and is returned once all started calls finish.
func MapWithConcurrency[T, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, index int, item T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() error {
			result, err := fn(gctx, i, item)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
