// Package banner provides colored banner display functions for the
// rl-context-task CLI.
//
// Banners frame the session on the console: startup, completion with the
// final score, and the two early exits. They are printed outside the
// participant's screen, before the display starts and after it closes.
package banner

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/CodexForgeBR/rl-context-task/internal/datalog"
	"github.com/CodexForgeBR/rl-context-task/internal/logging"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold).SprintFunc()
	successColor = color.New(color.FgGreen, color.Bold).SprintFunc()
	warnColor    = color.New(color.FgYellow, color.Bold).SprintFunc()
)

const rule = "═══════════════════════════════════════════════════"

var out io.Writer = os.Stdout

// SetOutput redirects banners to w.
func SetOutput(w io.Writer) {
	out = w
}

// StartupInfo is what the startup banner shows.
type StartupInfo struct {
	Experiment string
	SessionID  string
	Subject    string
	Seed       int64
	Conditions string
	Trials     int
	Logfile    string
	Simulated  bool
}

// PrintStartupBanner displays the startup banner with session info.
//
// Example output:
//
//	═══════════════════════════════════════════════════
//	  rl-context-task - Reinforcement-Learning Task
//	═══════════════════════════════════════════════════
//	  Session:    5f0c3a1e-...
//	  Subject:    007
//	  Seed:       512
//	  Conditions: stim/conditions.csv (96 trials)
//	  Log:        data/task-rl_subject-007_date-20250203_time-1405.csv
//	═══════════════════════════════════════════════════
func PrintStartupBanner(info StartupInfo) {
	sep := headerColor(rule)
	fmt.Fprintln(out, sep)
	fmt.Fprintln(out, headerColor("  rl-context-task - "+info.Experiment))
	fmt.Fprintln(out, sep)
	fmt.Fprintf(out, "  Session:    %s\n", info.SessionID)
	fmt.Fprintf(out, "  Subject:    %s\n", info.Subject)
	fmt.Fprintf(out, "  Seed:       %d\n", info.Seed)
	fmt.Fprintf(out, "  Conditions: %s (%d trials)\n", info.Conditions, info.Trials)
	fmt.Fprintf(out, "  Log:        %s\n", info.Logfile)
	if info.Simulated {
		fmt.Fprintln(out, warnColor("  Simulated participant"))
	}
	fmt.Fprintln(out, sep)
}

// PrintCompletionBanner displays the completion banner with the final score.
//
// Example output:
//
//	═══════════════════════════════════════════════════
//	  ✓ Session completed
//	  Trials:     96
//	  Score:      340
//	  Duration:   12m 5s (725s)
//	═══════════════════════════════════════════════════
func PrintCompletionBanner(trials int, total float64, durationSecs int) {
	sep := successColor(rule)
	fmt.Fprintln(out, sep)
	fmt.Fprintln(out, successColor("  ✓ Session completed"))
	fmt.Fprintf(out, "  Trials:     %d\n", trials)
	fmt.Fprintf(out, "  Score:      %s\n", datalog.FormatNumber(total))
	fmt.Fprintf(out, "  Duration:   %s (%ds)\n", logging.FormatDuration(durationSecs), durationSecs)
	fmt.Fprintln(out, sep)
}

// PrintQuitBanner displays when the participant pressed the quit key.
//
// Example output:
//
//	═══════════════════════════════════════════════════
//	  ⚠ Session quit by participant
//	  Trials:     14
//	  Phase:      learning
//	  Data kept:  data/task-rl_subject-007_date-20250203_time-1405.csv
//	═══════════════════════════════════════════════════
func PrintQuitBanner(trials int, phase string, logfile string) {
	sep := warnColor(rule)
	fmt.Fprintln(out, sep)
	fmt.Fprintln(out, warnColor("  ⚠ Session quit by participant"))
	fmt.Fprintf(out, "  Trials:     %d\n", trials)
	fmt.Fprintf(out, "  Phase:      %s\n", phase)
	fmt.Fprintf(out, "  Data kept:  %s\n", logfile)
	fmt.Fprintln(out, sep)
}

// PrintInterruptedBanner displays when the process was interrupted by a
// signal.
//
// Example output:
//
//	═══════════════════════════════════════════════════
//	  ⚠ Session interrupted
//	  Trials:     3
//	  Phase:      training
//	═══════════════════════════════════════════════════
func PrintInterruptedBanner(trials int, phase string) {
	sep := warnColor(rule)
	fmt.Fprintln(out, sep)
	fmt.Fprintln(out, warnColor("  ⚠ Session interrupted"))
	fmt.Fprintf(out, "  Trials:     %d\n", trials)
	fmt.Fprintf(out, "  Phase:      %s\n", phase)
	fmt.Fprintln(out, sep)
}
