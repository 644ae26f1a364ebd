// Package headless is a presentation device without a screen: time is
// virtual and key presses come from a responder. It runs simulated pilot
// sessions and backs the tests of every time-dependent package.
package headless

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CodexForgeBR/rl-context-task/internal/display"
)

// ErrNoResponse is returned when a wait without time limit gets no answer
// from the responder; a virtual clock would otherwise wait forever.
var ErrNoResponse = errors.New("responder gave no answer to an unbounded wait")

// Responder decides how a participant reacts to a wait.
type Responder interface {
	// Respond returns the key to press and how long after the wait started
	// to press it. ok is false when the participant does not respond.
	Respond(keys []string, timeout time.Duration) (key string, after time.Duration, ok bool)
}

// Device implements display.Device on a virtual clock.
type Device struct {
	now       time.Time
	responder Responder

	// Frames is every frame presented, in order.
	Frames []display.Frame
	// Presses is every key press delivered, in order.
	Presses []display.Press
}

// New returns a device whose clock starts at start.
func New(start time.Time, r Responder) *Device {
	return &Device{now: start, responder: r}
}

// Now returns the virtual time.
func (d *Device) Now() time.Time {
	return d.now
}

// Wait advances the virtual clock by dur.
func (d *Device) Wait(ctx context.Context, dur time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dur > 0 {
		d.now = d.now.Add(dur)
	}
	return nil
}

// Present records f and returns the current virtual time.
func (d *Device) Present(ctx context.Context, f display.Frame) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	d.Frames = append(d.Frames, f)
	return d.now, nil
}

// WaitKeys asks the responder for a press. A press at or after the timeout
// counts as no press, and the clock moves to the end of the window.
func (d *Device) WaitKeys(ctx context.Context, keys []string, timeout time.Duration) (display.Press, bool, error) {
	if err := ctx.Err(); err != nil {
		return display.Press{}, false, err
	}

	key, after, ok := d.responder.Respond(keys, timeout)
	if ok && !contains(keys, key) {
		return display.Press{}, false, fmt.Errorf("responder pressed %q, not one of %v", key, keys)
	}
	if !ok || (timeout > 0 && after >= timeout) {
		if timeout <= 0 {
			return display.Press{}, false, ErrNoResponse
		}
		d.now = d.now.Add(timeout)
		return display.Press{}, false, nil
	}

	if after > 0 {
		d.now = d.now.Add(after)
	}
	p := display.Press{Key: key, At: d.now}
	d.Presses = append(d.Presses, p)
	return p, true, nil
}

// LastFrame returns the most recent frame, or a blank one.
func (d *Device) LastFrame() display.Frame {
	if len(d.Frames) == 0 {
		return display.Blank()
	}
	return d.Frames[len(d.Frames)-1]
}

func contains(keys []string, k string) bool {
	for _, x := range keys {
		if x == k {
			return true
		}
	}
	return false
}
