// Package signal turns process signals into session cancellation.
package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/CodexForgeBR/rl-context-task/internal/errs"
)

// SetupSignalHandler ends the session on SIGINT or SIGTERM. It runs
// onInterrupt, when set, and then cancels with errs.ErrInterrupted so every
// pending wait returns and the runner can close its logs. The listener goes
// away with ctx.
func SetupSignalHandler(ctx context.Context, cancel context.CancelCauseFunc, onInterrupt func()) {
	received := make(chan os.Signal, 1)
	signal.Notify(received, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(received)
		select {
		case <-received:
			if onInterrupt != nil {
				onInterrupt()
			}
			cancel(errs.ErrInterrupted)
		case <-ctx.Done():
			return
		}
	}()
}
