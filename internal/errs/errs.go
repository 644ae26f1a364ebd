// Package errs defines the error taxonomy shared by every layer of the task.
//
// Configuration problems are fatal and surface before anything is drawn for
// the affected trial. Participant quits and process interrupts are designed
// early exits, not failures, and are told apart from configuration errors
// with errors.Is. A response timeout is never an error.
package errs

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrConfiguration marks malformed or missing settings and trial fields.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidSpec marks a trial whose position flag is neither "left" nor "right".
	ErrInvalidSpec = errors.New("invalid trial spec")

	// ErrQuit is the controlled termination requested with the quit key.
	ErrQuit = errors.New("participant quit")

	// ErrInterrupted is raised when the process receives SIGINT or SIGTERM.
	ErrInterrupted = errors.New("session interrupted")

	// ErrAlreadyLogged is returned by a second log of the same trial.
	ErrAlreadyLogged = errors.New("trial already logged")

	// ErrIllegalTransition is returned when a trial step runs out of order.
	ErrIllegalTransition = errors.New("illegal trial state transition")
)

// Config wraps ErrConfiguration with a message and context values.
func Config(msg string, opts ...goerr.Option) error {
	return goerr.Wrap(ErrConfiguration, msg, opts...)
}

// IsConfiguration reports whether err is a fatal configuration problem.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrInvalidSpec)
}

// IsTermination reports whether err ends the session on purpose.
func IsTermination(err error) bool {
	return errors.Is(err, ErrQuit) || errors.Is(err, ErrInterrupted)
}

// FromContext converts a cancelled session context into a termination error.
// The cancel cause is kept when it is already one of ours; any other
// cancellation counts as a quit.
func FromContext(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil {
		return nil
	}
	if IsTermination(cause) {
		return cause
	}
	return goerr.Wrap(ErrQuit, "session cancelled", goerr.V("cause", cause.Error()))
}

// Abort returns the termination cause of ctx once it has ended, and err
// otherwise. Waits call it so a cancelled wait reports why the session
// stopped rather than a bare context error.
func Abort(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return FromContext(ctx)
	}
	return err
}
