// Package exitcode defines the process exit codes of a session.
//
// Lab scripts that launch the task branch on these values, so they are part
// of the command's interface.
package exitcode

import (
	"errors"

	"github.com/CodexForgeBR/rl-context-task/internal/errs"
)

// Exit code constants.
const (
	Success     = 0   // All phases completed and data flushed
	Error       = 1   // Invalid args, file not found, misconfiguration
	Quit        = 2   // Participant pressed the quit key
	Interrupted = 130 // SIGINT/SIGTERM received
)

// For maps the error that ended a session to its exit code.
func For(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, errs.ErrInterrupted):
		return Interrupted
	case errors.Is(err, errs.ErrQuit):
		return Quit
	default:
		return Error
	}
}

// Status is the session status recorded in the event log for code.
func Status(code int) string {
	switch code {
	case Success:
		return "completed"
	case Error:
		return "error"
	case Quit:
		return "quit"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}
