// Package cli provides help text and usage formatting for the rl-context-task CLI.
package cli

import (
	"github.com/spf13/cobra"
)

const helpTemplate = `rl-context-task - Two-alternative reinforcement-learning task with contextual feedback

USAGE
  rl-context-task --subject <id> [flags]

FLAGS
  Participant:
    --subject <id>                         Participant identifier (required unless --simulate)
    --session <n>                          Session number (default: 001)
    --experimenter <initials>              Experimenter initials
    --seed <int>                           Random seed (default: drawn in [100, 999))

  Input Files:
    --config <path>                        Path to additional settings file
    --conditions-file <path>               Path to the condition table (default: stim/conditions.csv)
    --stimuli-dir <path>                   Directory of symbol images (default: stim/images)
    --instructions-file <path>             TOML file with instruction slides

  Output:
    --data-dir <path>                      Directory for trial logs (default: data)
    --sqlite-log                           Also log trials to a SQLite database

  Flow:
    --arrangement <blocked|interleaved>    Trial arrangement within a block (default: blocked)
    --training-repeats-max <int>           Maximum training repeats (default: 2)
    --block-dividers                       Show a slide between blocks
    --no-score                             Do not show the score after each phase

  Timing:
    --timeout <seconds|inf>                Response window (default: 5)
    --fixed-response                       Hold the choice until the response window ends

  Simulation:
    --simulate                             Run a simulated participant without a screen
    --sim-rt-min <seconds>                 Fastest simulated response (default: 0.3)
    --sim-rt-max <seconds>                 Slowest simulated response (default: 1.5)

  Feature Toggles:
    -v, --verbose                          Debug output and event mirroring

  Help & Version:
    -h, --help                             Show this help text
    --version                              Show version, commit, build date

SETTINGS
  settings.toml in the working directory is read when present, then the
  --config file, then the flags above. Durations are in seconds.

EXIT CODES
  0   Success              All phases completed and data flushed
  1   Error                Invalid arguments, file not found, misconfiguration
  2   Quit                 Participant pressed the quit key
  130 Interrupted          SIGINT or SIGTERM received

EXAMPLES
  # Run a participant with the default settings
  rl-context-task --subject 007

  # Self-paced task with interleaved trials
  rl-context-task --subject 007 --timeout inf --arrangement interleaved

  # Pilot the condition table with a simulated participant
  rl-context-task --simulate --seed 512 --sqlite-log
`

// SetCustomHelp configures the cobra command to use our custom help template.
func SetCustomHelp(cmd *cobra.Command) {
	cmd.SetHelpTemplate(helpTemplate)
}
