package terminal

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CodexForgeBR/rl-context-task/internal/config"
	"github.com/CodexForgeBR/rl-context-task/internal/display"
	"github.com/CodexForgeBR/rl-context-task/internal/errs"
)

// ErrClosed is returned once the screen has been closed.
var ErrClosed = errors.New("terminal screen closed")

// keyBuffer bounds presses queued between waits; older ones are dropped.
const keyBuffer = 64

// Device implements display.Device on a bubbletea program and the wall
// clock.
type Device struct {
	display.SystemClock

	program *tea.Program
	presses chan display.Press
	done    chan struct{}
	runErr  error

	quitKey string
	cancel  context.CancelCauseFunc
}

// New creates a device for cfg. Extra program options are passed to
// bubbletea, which is how tests swap the terminal for buffers.
func New(cfg *config.Config, opts ...tea.ProgramOption) *Device {
	d := &Device{
		presses: make(chan display.Press, keyBuffer),
		done:    make(chan struct{}),
		quitKey: cfg.ButtonQuit,
	}
	model := NewModel(NewStyles(cfg), d.onKey)
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	d.program = tea.NewProgram(model, opts...)
	return d
}

// Start runs the screen until Stop. The quit key and ctrl+c end the session
// through cancel, even while no wait is listening.
func (d *Device) Start(cancel context.CancelCauseFunc) {
	d.cancel = cancel
	go func() {
		defer close(d.done)
		_, d.runErr = d.program.Run()
	}()
}

// Stop closes the screen and restores the terminal.
func (d *Device) Stop() error {
	d.program.Quit()
	<-d.done
	if d.runErr != nil && !errors.Is(d.runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal screen: %w", d.runErr)
	}
	return nil
}

// Present sends f to the screen and returns when the model has taken it.
func (d *Device) Present(ctx context.Context, f display.Frame) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}

	ack := make(chan time.Time, 1)
	go d.program.Send(frameMsg{frame: f, ack: ack})

	select {
	case at := <-ack:
		return at, nil
	case <-ctx.Done():
		return time.Time{}, ctx.Err()
	case <-d.done:
		return time.Time{}, ErrClosed
	}
}

// WaitKeys waits for one of keys. Presses queued before the call are
// discarded.
func (d *Device) WaitKeys(ctx context.Context, keys []string, timeout time.Duration) (display.Press, bool, error) {
	d.drain()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return display.Press{}, false, ctx.Err()
		case <-d.done:
			return display.Press{}, false, ErrClosed
		case <-expired:
			return display.Press{}, false, nil
		case p := <-d.presses:
			if slices.Contains(keys, p.Key) {
				return p, true, nil
			}
		}
	}
}

func (d *Device) drain() {
	for {
		select {
		case <-d.presses:
		default:
			return
		}
	}
}

// onKey runs on the bubbletea goroutine.
func (d *Device) onKey(name string, at time.Time) {
	switch {
	case name == "ctrl+c":
		d.stop(errs.ErrInterrupted)
	case name == d.quitKey:
		d.stop(errs.ErrQuit)
	}

	select {
	case d.presses <- display.Press{Key: name, At: at}:
	default:
	}
}

func (d *Device) stop(cause error) {
	if d.cancel != nil {
		d.cancel(cause)
	}
}
