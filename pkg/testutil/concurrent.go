package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"credo/pkg/platform/sentinel"
)

// Outcomes counts how racing calls ended.
type Outcomes struct {
	Successes int32
	Conflicts int32
	NotFounds int32
	Errors    int32
}

// Race calls fn from n goroutines that are released together, then sorts the
// results by the sentinel each error wraps.
func Race(ctx context.Context, n int, fn func(ctx context.Context, idx int) error) Outcomes {
	var (
		wg                                  sync.WaitGroup
		successes, conflicts, notFound, bad atomic.Int32
	)
	start := make(chan struct{})
	for i := range n {
		wg.Go(func() {
			<-start
			err := fn(ctx, i)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			case errors.Is(err, sentinel.ErrNotFound):
				notFound.Add(1)
			default:
				bad.Add(1)
			}
		})
	}
	close(start)
	wg.Wait()

	return Outcomes{
		Successes: successes.Load(),
		Conflicts: conflicts.Load(),
		NotFounds: notFound.Load(),
		Errors:    bad.Load(),
	}
}
