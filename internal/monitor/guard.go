package monitor

import (
	"context"
	"fmt"
)

// callProbe runs fn on its own goroutine so a panicking or hung probe cannot
// take down the monitor. When ctx expires first the probe goroutine is left
// to finish on its own and its result is discarded.
func callProbe[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("probe panic: %v", r)}
			}
		}()
		value, err := fn(ctx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("probe abandoned: %w", ctx.Err())
	}
}
