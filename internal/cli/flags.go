// Package cli provides flag binding and validation for the rl-context-task CLI.
package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/CodexForgeBR/rl-context-task/internal/config"
)

// BindFlags registers all CLI flags on the given cobra command.
// The flags directly modify fields in the provided config pointer.
// Call ValidateFlags after parsing to check flag combinations.
func BindFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	// Participant
	flags.StringVar(&cfg.Subject, "subject", "", "Participant identifier (required unless --simulate)")
	flags.StringVar(&cfg.Session, "session", "001", "Session number")
	flags.StringVar(&cfg.Experimenter, "experimenter", "", "Experimenter initials")
	flags.Int64Var(&cfg.Seed, "seed", 0, "Random seed (default: drawn in [100, 999))")

	// Input Files
	flags.StringVar(&cfg.ConfigFile, "config", "", "Path to additional settings file")
	flags.StringVar(&cfg.ConditionsFile, "conditions-file", cfg.ConditionsFile, "Path to the condition table")
	flags.StringVar(&cfg.StimuliDir, "stimuli-dir", cfg.StimuliDir, "Directory of symbol images")
	flags.StringVar(&cfg.InstructionsFile, "instructions-file", "", "TOML file with instruction slides")

	// Output
	flags.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Directory for trial logs")
	flags.BoolVar(&cfg.SQLiteLog, "sqlite-log", false, "Also log trials to a SQLite database")

	// Flow
	flags.StringVar(&cfg.TemporalArrangement, "arrangement", cfg.TemporalArrangement, "Trial arrangement: blocked or interleaved")
	flags.IntVar(&cfg.TrainingRepeatsMax, "training-repeats-max", cfg.TrainingRepeatsMax, "Maximum training repeats")
	flags.BoolVar(&cfg.ShowBlockDividers, "block-dividers", false, "Show a slide between blocks")
	var noScore bool
	flags.BoolVar(&noScore, "no-score", false, "Do not show the score after each phase")

	// Timing
	flags.Float64Var(&cfg.DurationTimeout, "timeout", cfg.DurationTimeout, "Response window in seconds, or inf")
	flags.BoolVar(&cfg.DurationFixedResponse, "fixed-response", false, "Hold the choice until the response window ends")

	// Simulation
	flags.BoolVar(&cfg.Simulate, "simulate", false, "Run a simulated participant without a screen")
	flags.Float64Var(&cfg.SimRTMin, "sim-rt-min", cfg.SimRTMin, "Fastest simulated response in seconds")
	flags.Float64Var(&cfg.SimRTMax, "sim-rt-max", cfg.SimRTMax, "Slowest simulated response in seconds")

	// Feature Toggles
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Debug output and event mirroring")
}

// ValidateFlags checks for invalid flag combinations after parsing.
// Must be called after cmd.Execute() or cmd.ParseFlags().
func ValidateFlags(cmd *cobra.Command, cfg *config.Config) error {
	// --config must exist if provided
	if cfg.ConfigFile != "" {
		if _, err := os.Stat(cfg.ConfigFile); err != nil {
			return fmt.Errorf("--config: %w", err)
		}
	}

	if cfg.Subject == "" {
		if !cfg.Simulate {
			return fmt.Errorf("--subject is required")
		}
		cfg.Subject = "sim"
	}

	if cfg.Seed < 0 {
		return fmt.Errorf("--seed must not be negative, got: %d", cfg.Seed)
	}

	if cfg.SimRTMin < 0 || cfg.SimRTMax < cfg.SimRTMin {
		return fmt.Errorf("--sim-rt-min and --sim-rt-max must satisfy 0 <= min <= max, got: %g, %g", cfg.SimRTMin, cfg.SimRTMax)
	}

	// Handle negation flags via Changed detection
	if cmd.Flags().Changed("no-score") {
		cfg.ShowScoreAfterPhase = false
	}

	return nil
}

// Overrides creates the settings override map from the flags explicitly set
// by the user. Keys are settings file names, so the map is applied on top of
// the settings files and an unset flag never masks a file value.
func Overrides(cmd *cobra.Command, cfg *config.Config) map[string]string {
	overrides := make(map[string]string)

	// String flags
	stringFlags := map[string]struct {
		key string
		val string
	}{
		"conditions-file":   {"conditions_file", cfg.ConditionsFile},
		"stimuli-dir":       {"stimuli_dir", cfg.StimuliDir},
		"instructions-file": {"instructions_file", cfg.InstructionsFile},
		"data-dir":          {"data_dir", cfg.DataDir},
		"arrangement":       {"temporal_arrangement", cfg.TemporalArrangement},
	}
	for flag, mapping := range stringFlags {
		if cmd.Flags().Changed(flag) {
			overrides[mapping.key] = mapping.val
		}
	}

	// Int flags
	if cmd.Flags().Changed("training-repeats-max") {
		overrides["training_repeats_max"] = strconv.Itoa(cfg.TrainingRepeatsMax)
	}

	// Float flags
	if cmd.Flags().Changed("timeout") {
		overrides["duration_timeout"] = strconv.FormatFloat(cfg.DurationTimeout, 'f', -1, 64)
	}

	// Bool flags
	boolFlags := map[string]struct {
		key string
		val bool
	}{
		"sqlite-log":     {"sqlite_log", cfg.SQLiteLog},
		"block-dividers": {"show_block_dividers", cfg.ShowBlockDividers},
		"fixed-response": {"duration_fixed_response", cfg.DurationFixedResponse},
		"verbose":        {"verbose", cfg.Verbose},
	}
	for flag, mapping := range boolFlags {
		if cmd.Flags().Changed(flag) {
			overrides[mapping.key] = strconv.FormatBool(mapping.val)
		}
	}

	// Handle negation flags
	if cmd.Flags().Changed("no-score") {
		overrides["show_score_after_phase"] = "false"
	}

	return overrides
}

// MergeCLIOnly copies the flags that never appear in settings files from
// src to dst.
func MergeCLIOnly(dst, src *config.Config) {
	dst.ConfigFile = src.ConfigFile
	dst.Subject = src.Subject
	dst.Session = src.Session
	dst.Experimenter = src.Experimenter
	dst.Seed = src.Seed
	dst.Simulate = src.Simulate
	dst.SimRTMin = src.SimRTMin
	dst.SimRTMax = src.SimRTMax
}
