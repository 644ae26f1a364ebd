// Package config defines the rl-context-task settings model and default values.
//
// Settings are assembled from multiple sources with a strict precedence
// chain: built-in defaults < project settings file < explicit settings file
// < CLI flag overrides. Everything is read once at startup.
package config

import (
	"math"
	"time"
)

// Temporal arrangements.
const (
	ArrangementBlocked     = "blocked"
	ArrangementInterleaved = "interleaved"
)

// WhitelistedVars lists every setting name that may appear in settings files
// and in the CLI override map. Names outside this list are reported as
// unknown during loading.
var WhitelistedVars = [38]string{
	"experiment_name",
	"experiment_label",
	"end_screen_message",
	"temporal_arrangement",
	"training_repeats_max",
	"show_block_dividers",
	"show_score_after_phase",
	"conditions_file",
	"stimuli_dir",
	"data_dir",
	"instructions_file",
	"sqlite_log",
	"duration_timeout",
	"duration_choice",
	"duration_outcome",
	"duration_iti",
	"duration_iti_jitter",
	"duration_first_trial_blank",
	"duration_fixed_response",
	"animation_speed",
	"animation_frame_rate",
	"background_color",
	"text_color",
	"outcome_color",
	"outcome_color_counterfactual",
	"rect_linecolor",
	"fb_rect_linecolor",
	"symbol_width",
	"symbol_height",
	"button_left",
	"button_right",
	"button_quit",
	"button_instr_next",
	"button_instr_previous",
	"button_instr_finish",
	"button_instr_skip",
	"button_instr_repeat",
	"verbose",
}

// Config holds every setting of a session. Durations are seconds so that
// settings files stay human-editable; use the accessor methods to get
// time.Duration values.
type Config struct {
	// Experiment labels.
	ExperimentName   string `toml:"experiment_name" json:"experiment_name"`
	ExperimentLabel  string `toml:"experiment_label" json:"experiment_label"`
	EndScreenMessage string `toml:"end_screen_message" json:"end_screen_message"`

	// Flow.
	TemporalArrangement string `toml:"temporal_arrangement" json:"temporal_arrangement"`
	TrainingRepeatsMax  int    `toml:"training_repeats_max" json:"training_repeats_max"`
	ShowBlockDividers   bool   `toml:"show_block_dividers" json:"show_block_dividers"`
	ShowScoreAfterPhase bool   `toml:"show_score_after_phase" json:"show_score_after_phase"`

	// Files.
	ConditionsFile   string `toml:"conditions_file" json:"conditions_file"`
	StimuliDir       string `toml:"stimuli_dir" json:"stimuli_dir"`
	DataDir          string `toml:"data_dir" json:"data_dir"`
	InstructionsFile string `toml:"instructions_file" json:"instructions_file"`
	SQLiteLog        bool   `toml:"sqlite_log" json:"sqlite_log"`

	// Timing, in seconds. DurationTimeout may be +Inf for a self-paced task.
	DurationTimeout         float64 `toml:"duration_timeout" json:"duration_timeout"`
	DurationChoice          float64 `toml:"duration_choice" json:"duration_choice"`
	DurationOutcome         float64 `toml:"duration_outcome" json:"duration_outcome"`
	DurationITI             float64 `toml:"duration_iti" json:"duration_iti"`
	DurationITIJitter       float64 `toml:"duration_iti_jitter" json:"duration_iti_jitter"`
	DurationFirstTrialBlank float64 `toml:"duration_first_trial_blank" json:"duration_first_trial_blank"`
	DurationFixedResponse   bool    `toml:"duration_fixed_response" json:"duration_fixed_response"`
	AnimationSpeed          float64 `toml:"animation_speed" json:"animation_speed"`
	AnimationFrameRate      float64 `toml:"animation_frame_rate" json:"animation_frame_rate"`

	// Visual.
	BackgroundColor            string `toml:"background_color" json:"background_color"`
	TextColor                  string `toml:"text_color" json:"text_color"`
	OutcomeColor               string `toml:"outcome_color" json:"outcome_color"`
	OutcomeColorCounterfactual string `toml:"outcome_color_counterfactual" json:"outcome_color_counterfactual"`
	RectLineColor              string `toml:"rect_linecolor" json:"rect_linecolor"`
	FeedbackRectLineColor      string `toml:"fb_rect_linecolor" json:"fb_rect_linecolor"`
	SymbolWidth                int    `toml:"symbol_width" json:"symbol_width"`
	SymbolHeight               int    `toml:"symbol_height" json:"symbol_height"`

	// Buttons.
	ButtonLeft          string `toml:"button_left" json:"button_left"`
	ButtonRight         string `toml:"button_right" json:"button_right"`
	ButtonQuit          string `toml:"button_quit" json:"button_quit"`
	ButtonInstrNext     string `toml:"button_instr_next" json:"button_instr_next"`
	ButtonInstrPrevious string `toml:"button_instr_previous" json:"button_instr_previous"`
	ButtonInstrFinish   string `toml:"button_instr_finish" json:"button_instr_finish"`
	ButtonInstrSkip     string `toml:"button_instr_skip" json:"button_instr_skip"`
	ButtonInstrRepeat   string `toml:"button_instr_repeat" json:"button_instr_repeat"`

	// Runtime flags.
	Verbose bool `toml:"verbose" json:"verbose"`

	// CLI-only flags (not loaded from settings files).
	ConfigFile   string  `toml:"-" json:"-"`
	Subject      string  `toml:"-" json:"subject"`
	Session      string  `toml:"-" json:"session"`
	Experimenter string  `toml:"-" json:"experimenter"`
	Seed         int64   `toml:"-" json:"-"`
	Simulate     bool    `toml:"-" json:"simulate"`
	SimRTMin     float64 `toml:"-" json:"-"`
	SimRTMax     float64 `toml:"-" json:"-"`
}

// NewDefaultConfig returns a Config populated with all built-in default values.
func NewDefaultConfig() *Config {
	return &Config{
		ExperimentName:   "Reinforcement-Learning Task",
		ExperimentLabel:  "rl-context-task",
		EndScreenMessage: "Thank you for taking part.",

		TemporalArrangement: ArrangementBlocked,
		TrainingRepeatsMax:  2,
		ShowBlockDividers:   false,
		ShowScoreAfterPhase: true,

		ConditionsFile: "stim/conditions.csv",
		StimuliDir:     "stim/images",
		DataDir:        "data",

		DurationTimeout:         5.0,
		DurationChoice:          0.5,
		DurationOutcome:         1.0,
		DurationITI:             0.2,
		DurationITIJitter:       0,
		DurationFirstTrialBlank: 1.0,
		DurationFixedResponse:   false,
		AnimationSpeed:          0.5,
		AnimationFrameRate:      60,

		BackgroundColor:            "#d3d3d3",
		TextColor:                  "#000000",
		OutcomeColor:               "#228b22",
		OutcomeColorCounterfactual: "#808080",
		RectLineColor:              "#000000",
		FeedbackRectLineColor:      "#000000",
		SymbolWidth:                18,
		SymbolHeight:               7,

		ButtonLeft:          "f",
		ButtonRight:         "j",
		ButtonQuit:          "q",
		ButtonInstrNext:     "right",
		ButtonInstrPrevious: "left",
		ButtonInstrFinish:   "space",
		ButtonInstrSkip:     "s",
		ButtonInstrRepeat:   "r",

		SimRTMin: 0.3,
		SimRTMax: 1.5,
	}
}

// Timeout returns the response window. Zero means no limit.
func (c *Config) Timeout() time.Duration {
	return Seconds(c.DurationTimeout)
}

// ChoiceDuration returns the fixed choice-lock duration.
func (c *Config) ChoiceDuration() time.Duration {
	return Seconds(c.DurationChoice)
}

// OutcomeDuration returns how long outcomes stay on screen.
func (c *Config) OutcomeDuration() time.Duration {
	return Seconds(c.DurationOutcome)
}

// ITI returns the nominal inter-trial interval.
func (c *Config) ITI() time.Duration {
	return Seconds(c.DurationITI)
}

// ITIJitter returns the full width of the ITI jitter window.
func (c *Config) ITIJitter() time.Duration {
	return Seconds(c.DurationITIJitter)
}

// FirstTrialBlank returns the blank shown before the first trial of a block.
func (c *Config) FirstTrialBlank() time.Duration {
	return Seconds(c.DurationFirstTrialBlank)
}

// FrameInterval returns the pacing of animation frames.
func (c *Config) FrameInterval() time.Duration {
	if c.AnimationFrameRate <= 0 {
		return 0
	}
	return Seconds(1 / c.AnimationFrameRate)
}

// Seconds converts a settings value in seconds to a duration.
// Infinite and non-positive values become zero, which callers read as
// "no limit" or "no wait" depending on context.
func Seconds(s float64) time.Duration {
	if math.IsInf(s, 0) || math.IsNaN(s) || s <= 0 {
		return 0
	}
	return time.Duration(math.Round(s * float64(time.Second)))
}
