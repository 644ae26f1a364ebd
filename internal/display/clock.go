package display

import (
	"context"
	"time"
)

// SystemClock is the wall clock with context-aware waits.
type SystemClock struct{}

// Now returns the current time, which carries Go's monotonic reading.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Wait blocks for d. Returns immediately if d is not positive.
// Respects context cancellation.
func (c SystemClock) Wait(ctx context.Context, d time.Duration) error {
	return WaitUntil(ctx, time.Now().Add(d))
}

// WaitUntil blocks until target, returning early with ctx's error when the
// context ends first.
func WaitUntil(ctx context.Context, target time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	remaining := time.Until(target)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
