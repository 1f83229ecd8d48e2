package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForEach runs action for every item in its own goroutine, at most limit at a
// time (limit <= 0 means no limit). The context passed to action is cancelled
// as soon as one action fails; the first error is returned.
func ForEach[T any](ctx context.Context, items []T, limit int, action func(context.Context, T) error) error {
	group, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}

	for _, item := range items {
		group.Go(func() error {
			return action(gctx, item)
		})
	}

	return group.Wait()
}

// ForEachMute behaves like ForEach but never cancels siblings: every action
// runs to completion and errors are handed to collect one by one.
func ForEachMute[T any](ctx context.Context, items []T, limit int, action func(context.Context, T) error, collect func(T, error)) {
	group := errgroup.Group{}
	if limit > 0 {
		group.SetLimit(limit)
	}

	for _, item := range items {
		group.Go(func() error {
			if err := action(ctx, item); err != nil && collect != nil {
				collect(item, err)
			}
			return nil
		})
	}

	_ = group.Wait()
}
