// Package broadcast fans a request out to several recipients and keeps the
// first answer that succeeds.
package broadcast

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// ErrNoTargets indicates there was nobody to ask.
var ErrNoTargets = errors.New("broadcast has no targets")

// FirstSuccess calls fn for every target concurrently and returns the first
// successful result. Failures are ignored while any call is outstanding; when
// every call fails the joined errors are returned. Calls still running when a
// winner is found are left to finish on their own, so fn must be side-effect
// free or idempotent.
func FirstSuccess[T, R any](ctx context.Context, targets []T, fn func(context.Context, T) (R, error)) (R, error) {
	var zero R
	if len(targets) == 0 {
		return zero, ErrNoTargets
	}
	type result struct {
		value R
		err   error
	}
	results := make(chan result, len(targets))
	var group errgroup.Group
	for _, target := range targets {
		group.Go(func() error {
			value, err := fn(ctx, target)
			results <- result{value: value, err: err}
			return nil
		})
	}
	go func() {
		_ = group.Wait()
		close(results)
	}()
	var errs []error
	for {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case res, ok := <-results:
			if !ok {
				return zero, errors.Join(errs...)
			}
			if res.err == nil {
				return res.value, nil
			}
			errs = append(errs, res.err)
		}
	}
}
