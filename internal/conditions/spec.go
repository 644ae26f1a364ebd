// Package conditions loads the condition table: one row per trial, typed
// and validated before the session starts.
package conditions

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/CodexForgeBR/rl-context-task/internal/display"
	"github.com/CodexForgeBR/rl-context-task/internal/errs"
)

// Phase is a named segment of the session.
type Phase string

const (
	PhaseTraining Phase = "training"
	PhaseLearning Phase = "learning"
	PhaseTransfer Phase = "transfer"
	PhaseExplicit Phase = "explicit"
)

// Phases lists the phases in session order.
var Phases = []Phase{PhaseTraining, PhaseLearning, PhaseTransfer, PhaseExplicit}

// ParsePhase parses a phase name case-insensitively.
func ParsePhase(s string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PhaseTraining, PhaseLearning, PhaseTransfer, PhaseExplicit:
		return p, nil
	}
	return "", errs.Config("unknown phase", goerr.V("phase", s))
}

// Symbolic reports whether options of this phase are shown as symbols.
// Explicit-phase options are shown as probability and outcome text.
func (p Phase) Symbolic() bool {
	return p != PhaseExplicit
}

// Feedback controls how much outcome information follows a choice.
type Feedback string

const (
	FeedbackComplete Feedback = "complete"
	FeedbackPartial  Feedback = "partial"
	FeedbackNone     Feedback = "none"
	FeedbackSkip     Feedback = "skip"
)

// ParseFeedback parses a feedback mode.
func ParseFeedback(s string) (Feedback, error) {
	f := Feedback(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FeedbackComplete, FeedbackPartial, FeedbackNone, FeedbackSkip:
		return f, nil
	}
	return "", errs.Config("feedback must be one of complete, partial, none, skip", goerr.V("feedback", s))
}

// Randomness says whether payouts are drawn live or precomputed.
type Randomness string

const (
	Random       Randomness = "random"
	Pseudorandom Randomness = "pseudorandom"
)

// ParseRandomness parses an outcome-randomness mode.
func ParseRandomness(s string) (Randomness, error) {
	r := Randomness(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case Random, Pseudorandom:
		return r, nil
	}
	return "", errs.Config("outcome_randomness must be random or pseudorandom", goerr.V("outcome_randomness", s))
}

// ParseSide parses a position flag. Anything other than "left" or "right"
// is an errs.ErrInvalidSpec.
func ParseSide(s string) (display.Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return display.Left, nil
	case "right":
		return display.Right, nil
	}
	return 0, goerr.Wrap(errs.ErrInvalidSpec, "stim1pos must be 'left' or 'right'", goerr.V("stim1pos", s))
}

// Option is one of the two alternatives of a trial. Nil numeric fields are
// missing in the table, which is distinct from zero.
type Option struct {
	// Symbol identifies the stimulus image; empty for explicit options.
	Symbol string
	// Probability of paying Potential under random outcomes.
	Probability *float64
	// Potential is the outcome paid with Probability.
	Potential *float64
	// Precomputed is the payout under pseudorandom outcomes.
	Precomputed *float64
}

// TrialSpec is the immutable input to one trial.
type TrialSpec struct {
	// Row is the 1-based data row the spec was read from.
	Row        int
	TrialID    string
	Phase      Phase
	Block      string
	TrialType  string
	Options    [2]Option
	Feedback   Feedback
	Randomness Randomness
	// Stim1Pos is the screen side of option 1 as written in the table.
	Stim1Pos string
}

// Validate checks the fields the phase and randomness mode require.
func (s TrialSpec) Validate() error {
	if _, err := ParseSide(s.Stim1Pos); err != nil {
		return goerr.Wrap(err, "position", goerr.V("row", s.Row))
	}
	if s.Block == "" {
		return errs.Config("block is empty", goerr.V("row", s.Row))
	}
	if s.TrialType == "" {
		return errs.Config("trial_type is empty", goerr.V("row", s.Row))
	}

	for i, o := range s.Options {
		n := i + 1
		if s.Phase.Symbolic() && o.Symbol == "" {
			return errs.Config("symbol phases need both option identifiers", goerr.V("row", s.Row), goerr.V("option", n))
		}
		if !s.Phase.Symbolic() && (o.Probability == nil || o.Potential == nil) {
			return errs.Config("explicit options need probability and outcome", goerr.V("row", s.Row), goerr.V("option", n))
		}

		switch s.Randomness {
		case Random:
			if o.Probability == nil || o.Potential == nil {
				return errs.Config("random outcomes need probability and outcome", goerr.V("row", s.Row), goerr.V("option", n))
			}
			if p := *o.Probability; p < 0 || p > 1 {
				return errs.Config("probability must lie in [0, 1]", goerr.V("row", s.Row), goerr.V("option", n), goerr.V("probability", p))
			}
		case Pseudorandom:
			if o.Precomputed == nil {
				return errs.Config("pseudorandom outcomes need actual_outcome", goerr.V("row", s.Row), goerr.V("option", n))
			}
		default:
			return errs.Config("unknown outcome randomness", goerr.V("row", s.Row), goerr.V("outcome_randomness", s.Randomness))
		}
	}

	switch s.Feedback {
	case FeedbackComplete, FeedbackPartial, FeedbackNone, FeedbackSkip:
	default:
		return errs.Config("unknown feedback mode", goerr.V("row", s.Row), goerr.V("feedback", s.Feedback))
	}
	return nil
}

// ChoiceFor decodes a pressed side into the logical choice (1 or 2) given
// the side option 1 occupies.
func ChoiceFor(stim1 display.Side, pressed display.Side) int {
	if pressed == stim1 {
		return 1
	}
	return 2
}

// SideOf is the inverse of ChoiceFor: the screen side of the given option.
func SideOf(stim1 display.Side, choice int) display.Side {
	if choice == 1 {
		return stim1
	}
	return other(stim1)
}

func other(s display.Side) display.Side {
	if s == display.Left {
		return display.Right
	}
	return display.Left
}
