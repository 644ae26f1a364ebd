package config

import (
	"math"

	"github.com/m-mizutani/goerr/v2"

	"github.com/CodexForgeBR/rl-context-task/internal/errs"
)

// Validate checks settings that would otherwise fail mid-session.
// Every problem is an errs.ErrConfiguration.
func (c *Config) Validate() error {
	switch c.TemporalArrangement {
	case ArrangementBlocked, ArrangementInterleaved:
	default:
		return errs.Config("temporal_arrangement must be 'blocked' or 'interleaved'",
			goerr.V("temporal_arrangement", c.TemporalArrangement))
	}

	// A zero response window would read as "no limit" downstream.
	if !math.IsInf(c.DurationTimeout, 1) && Seconds(c.DurationTimeout) <= 0 {
		return errs.Config("duration_timeout must be positive or inf",
			goerr.V("duration_timeout", c.DurationTimeout))
	}
	if c.DurationFixedResponse && math.IsInf(c.DurationTimeout, 1) {
		return errs.Config("duration_fixed_response needs a finite duration_timeout")
	}

	durations := map[string]float64{
		"duration_timeout":           c.DurationTimeout,
		"duration_choice":            c.DurationChoice,
		"duration_outcome":           c.DurationOutcome,
		"duration_iti":               c.DurationITI,
		"duration_iti_jitter":        c.DurationITIJitter,
		"duration_first_trial_blank": c.DurationFirstTrialBlank,
		"animation_speed":            c.AnimationSpeed,
		"animation_frame_rate":       c.AnimationFrameRate,
	}
	for name, v := range durations {
		if math.IsNaN(v) || v < 0 {
			return errs.Config("setting must not be negative", goerr.V("setting", name), goerr.V("value", v))
		}
		if name != "duration_timeout" && math.IsInf(v, 0) {
			return errs.Config("only duration_timeout may be infinite", goerr.V("setting", name))
		}
	}

	if c.TrainingRepeatsMax < 0 {
		return errs.Config("training_repeats_max must not be negative",
			goerr.V("training_repeats_max", c.TrainingRepeatsMax))
	}

	buttons := map[string]string{
		"button_left":         c.ButtonLeft,
		"button_right":        c.ButtonRight,
		"button_quit":         c.ButtonQuit,
		"button_instr_finish": c.ButtonInstrFinish,
	}
	for name, v := range buttons {
		if v == "" {
			return errs.Config("button binding must not be empty", goerr.V("setting", name))
		}
	}
	if c.ButtonLeft == c.ButtonRight {
		return errs.Config("button_left and button_right must differ", goerr.V("button", c.ButtonLeft))
	}
	if c.ButtonQuit == c.ButtonLeft || c.ButtonQuit == c.ButtonRight {
		return errs.Config("button_quit must differ from the response buttons", goerr.V("button", c.ButtonQuit))
	}

	if c.SimRTMin < 0 || c.SimRTMax < c.SimRTMin {
		return errs.Config("simulated response time range is invalid",
			goerr.V("min", c.SimRTMin), goerr.V("max", c.SimRTMax))
	}

	return nil
}
