package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// ProjectFile is the settings file picked up from the working directory.
const ProjectFile = "settings.toml"

// whitelistSet is a precomputed lookup table for fast whitelist membership checks.
var whitelistSet map[string]bool

func init() {
	whitelistSet = make(map[string]bool, len(WhitelistedVars))
	for _, v := range WhitelistedVars {
		whitelistSet[v] = true
	}
}

// IsKnown reports whether key is a recognized setting name.
func IsKnown(key string) bool {
	return whitelistSet[key]
}

// LoadFile decodes the TOML settings file at path on top of cfg.
//
// Only keys present in the file change cfg; everything else keeps its
// previous value. Returns the names of keys that were not recognized, or an
// error if the file cannot be read or parsed.
func LoadFile(path string, cfg *Config) ([]string, error) {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode settings file: %w", err)
	}

	var unknown []string
	for _, key := range md.Undecoded() {
		unknown = append(unknown, key.String())
	}
	return unknown, nil
}

// LoadWithPrecedence assembles a Config by merging sources in order of
// increasing priority:
//
//  1. Built-in defaults
//  2. Project settings file (projectPath)
//  3. Explicit settings file (explicitPath)
//  4. CLI overrides (cliOverrides map)
//
// Any path that is empty is silently skipped. A missing project file is not
// an error; a missing explicit file is. Unknown keys are returned so the
// caller can warn about them.
func LoadWithPrecedence(projectPath, explicitPath string, cliOverrides map[string]string) (*Config, []string, error) {
	cfg := NewDefaultConfig()
	var unknown []string

	// Layer 2: project settings file.
	if projectPath != "" {
		if _, err := os.Stat(projectPath); err == nil {
			u, err := LoadFile(projectPath, cfg)
			if err != nil {
				return nil, nil, fmt.Errorf("project settings: %w", err)
			}
			unknown = append(unknown, u...)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("project settings: %w", err)
		}
	}

	// Layer 3: explicit settings file (must exist if specified).
	if explicitPath != "" {
		u, err := LoadFile(explicitPath, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("explicit settings: %w", err)
		}
		unknown = append(unknown, u...)
	}

	// Layer 4: CLI overrides (highest priority).
	if len(cliOverrides) > 0 {
		ApplyMapToConfig(cfg, cliOverrides)
	}

	return cfg, unknown, nil
}

// ApplyMapToConfig sets fields on cfg from the key-value pairs in m.
// Keys use the settings file names (e.g., "duration_timeout").
// Unknown keys are silently ignored. Numeric fields that fail to parse
// are silently ignored (the previous value is preserved).
func ApplyMapToConfig(cfg *Config, m map[string]string) {
	for key, value := range m {
		switch key {
		case "experiment_name":
			cfg.ExperimentName = value
		case "experiment_label":
			cfg.ExperimentLabel = value
		case "end_screen_message":
			cfg.EndScreenMessage = value
		case "temporal_arrangement":
			cfg.TemporalArrangement = value
		case "training_repeats_max":
			if v, err := strconv.Atoi(value); err == nil {
				cfg.TrainingRepeatsMax = v
			}
		case "show_block_dividers":
			cfg.ShowBlockDividers = parseBool(value)
		case "show_score_after_phase":
			cfg.ShowScoreAfterPhase = parseBool(value)
		case "conditions_file":
			cfg.ConditionsFile = value
		case "stimuli_dir":
			cfg.StimuliDir = value
		case "data_dir":
			cfg.DataDir = value
		case "instructions_file":
			cfg.InstructionsFile = value
		case "sqlite_log":
			cfg.SQLiteLog = parseBool(value)
		case "duration_timeout":
			setSeconds(&cfg.DurationTimeout, value)
		case "duration_choice":
			setSeconds(&cfg.DurationChoice, value)
		case "duration_outcome":
			setSeconds(&cfg.DurationOutcome, value)
		case "duration_iti":
			setSeconds(&cfg.DurationITI, value)
		case "duration_iti_jitter":
			setSeconds(&cfg.DurationITIJitter, value)
		case "duration_first_trial_blank":
			setSeconds(&cfg.DurationFirstTrialBlank, value)
		case "duration_fixed_response":
			cfg.DurationFixedResponse = parseBool(value)
		case "animation_speed":
			setSeconds(&cfg.AnimationSpeed, value)
		case "animation_frame_rate":
			setSeconds(&cfg.AnimationFrameRate, value)
		case "background_color":
			cfg.BackgroundColor = value
		case "text_color":
			cfg.TextColor = value
		case "outcome_color":
			cfg.OutcomeColor = value
		case "outcome_color_counterfactual":
			cfg.OutcomeColorCounterfactual = value
		case "rect_linecolor":
			cfg.RectLineColor = value
		case "fb_rect_linecolor":
			cfg.FeedbackRectLineColor = value
		case "symbol_width":
			if v, err := strconv.Atoi(value); err == nil {
				cfg.SymbolWidth = v
			}
		case "symbol_height":
			if v, err := strconv.Atoi(value); err == nil {
				cfg.SymbolHeight = v
			}
		case "button_left":
			cfg.ButtonLeft = value
		case "button_right":
			cfg.ButtonRight = value
		case "button_quit":
			cfg.ButtonQuit = value
		case "button_instr_next":
			cfg.ButtonInstrNext = value
		case "button_instr_previous":
			cfg.ButtonInstrPrevious = value
		case "button_instr_finish":
			cfg.ButtonInstrFinish = value
		case "button_instr_skip":
			cfg.ButtonInstrSkip = value
		case "button_instr_repeat":
			cfg.ButtonInstrRepeat = value
		case "verbose":
			cfg.Verbose = parseBool(value)
		}
	}
}

// setSeconds parses a float setting, accepting "inf" for an unbounded value.
func setSeconds(dst *float64, value string) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "inf", "+inf", "infinity":
		*dst = math.Inf(1)
		return
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		*dst = v
	}
}

// parseBool interprets common boolean representations.
// "true", "1", "yes" (case-insensitive) return true; everything else returns false.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
