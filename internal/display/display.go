// Package display defines the narrow interfaces the task uses to present
// frames, read key presses and keep time, plus the frame model shared by
// every presentation backend.
package display

import (
	"context"
	"time"
)

// Clock provides monotonic time and a cancellable wait.
type Clock interface {
	Now() time.Time
	// Wait blocks for d or until ctx is done, whichever comes first.
	Wait(ctx context.Context, d time.Duration) error
}

// Press is one key press with the time it happened.
type Press struct {
	Key string
	At  time.Time
}

// Input reports key presses.
type Input interface {
	// WaitKeys blocks until one of keys is pressed, the timeout elapses, or
	// ctx is done. A timeout of zero waits without limit. ok is false when
	// the timeout elapsed with no press; that is not an error. Presses made
	// before the call are discarded.
	WaitKeys(ctx context.Context, keys []string, timeout time.Duration) (p Press, ok bool, err error)
}

// Renderer draws frames.
type Renderer interface {
	// Present shows f and returns once it is visible, with the time it
	// became visible.
	Present(ctx context.Context, f Frame) (time.Time, error)
}

// Device bundles everything a session presents through.
type Device interface {
	Clock
	Input
	Renderer
}
