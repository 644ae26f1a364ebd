package signal

import (
	"context"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodexForgeBR/rl-context-task/internal/errs"
)

func TestSignalEndsSession(t *testing.T) {
	for _, sig := range []syscall.Signal{syscall.SIGINT, syscall.SIGTERM} {
		t.Run(sig.String(), func(t *testing.T) {
			ctx, cancel := context.WithCancelCause(context.Background())
			defer cancel(nil)

			var warned atomic.Bool
			SetupSignalHandler(ctx, cancel, func() { warned.Store(true) })

			require.NoError(t, syscall.Kill(os.Getpid(), sig))

			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
				t.Fatalf("session was not cancelled after %s", sig)
			}
			assert.ErrorIs(t, context.Cause(ctx), errs.ErrInterrupted)
			assert.True(t, warned.Load(), "callback runs before cancelling")
		})
	}
}

func TestSignalNilCallback(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	SetupSignalHandler(ctx, cancel, nil)
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGINT))

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("session was not cancelled")
	}
	assert.ErrorIs(t, context.Cause(ctx), errs.ErrInterrupted)
}

func TestSessionEndWithoutSignal(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())

	var warned atomic.Bool
	SetupSignalHandler(ctx, cancel, func() { warned.Store(true) })

	cancel(errs.ErrQuit)
	time.Sleep(20 * time.Millisecond)

	assert.False(t, warned.Load(), "no signal, no callback")
	assert.ErrorIs(t, context.Cause(ctx), errs.ErrQuit, "the quit cause is kept")
}
