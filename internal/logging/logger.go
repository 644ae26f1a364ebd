// Package logging provides colored, leveled console output for the
// rl-context-task CLI and the structured event log written next to the
// trial data.
//
// All console functions write a prefixed, color-coded line to stderr, which
// keeps stdout free for the full-screen presentation. Debug output is
// suppressed unless verbose mode is enabled via SetVerbose(true).
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// verbose controls whether Debug() produces output.
var verbose bool

// out overrides the console destination; nil means os.Stderr.
var out io.Writer

// Color printers for each log level.
var (
	infoPrefix    = color.New(color.FgBlue).SprintFunc()
	successPrefix = color.New(color.FgGreen).SprintFunc()
	warnPrefix    = color.New(color.FgYellow).SprintFunc()
	errorPrefix   = color.New(color.FgRed).SprintFunc()
	phasePrefix   = color.New(color.FgCyan).SprintFunc()
	debugPrefix   = color.New(color.FgBlue).SprintFunc()
)

// SetVerbose enables or disables Debug output.
func SetVerbose(v bool) {
	verbose = v
}

// SetOutput redirects console output. Passing nil restores stderr.
func SetOutput(w io.Writer) {
	out = w
}

func writer() io.Writer {
	if out != nil {
		return out
	}
	return os.Stderr
}

func emit(prefix func(a ...interface{}) string, tag, msg string) {
	fmt.Fprintln(writer(), prefix(tag)+" "+msg)
}

// Info prints an informational message in blue.
func Info(msg string) { emit(infoPrefix, "[INFO]", msg) }

// Success prints a success message in green.
func Success(msg string) { emit(successPrefix, "[SUCCESS]", msg) }

// Warn prints a warning message in yellow.
func Warn(msg string) { emit(warnPrefix, "[WARN]", msg) }

// Error prints an error message in red.
func Error(msg string) { emit(errorPrefix, "[ERROR]", msg) }

// Phase prints a session phase header in cyan between two rules.
func Phase(msg string) {
	rule := phasePrefix(strings.Repeat("━", 50))
	fmt.Fprintln(writer(), rule)
	emit(phasePrefix, "[PHASE]", msg)
	fmt.Fprintln(writer(), rule)
}

// Debug prints a message only in verbose mode.
func Debug(msg string) {
	if verbose {
		emit(debugPrefix, "[DEBUG]", msg)
	}
}

// FormatDuration renders a session length in seconds, e.g. "45s",
// "12m 5s" or "1h 0m 30s".
func FormatDuration(seconds int) string {
	h, m, s := seconds/3600, seconds/60%60, seconds%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
