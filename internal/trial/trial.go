// Package trial runs one two-alternative choice trial end to end: stimulus,
// timed response, choice lock, outcome reveal, inter-trial interval and the
// log record.
package trial

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/CodexForgeBR/rl-context-task/internal/conditions"
	"github.com/CodexForgeBR/rl-context-task/internal/datalog"
	"github.com/CodexForgeBR/rl-context-task/internal/display"
	"github.com/CodexForgeBR/rl-context-task/internal/errs"
	"github.com/CodexForgeBR/rl-context-task/internal/keys"
	"github.com/CodexForgeBR/rl-context-task/internal/logging"
	"github.com/CodexForgeBR/rl-context-task/internal/outcome"
	"github.com/CodexForgeBR/rl-context-task/internal/session"
)

// Placeholder stands in for an outcome that is not revealed.
const Placeholder = "?"

// Env is what a trial runs against.
type Env struct {
	Device  display.Device
	Keys    keys.Response
	Session *session.State
	Sink    datalog.Sink
	Events  *slog.Logger
}

// Result is what running a trial produced. Response, Choice and RT are nil
// exactly when the trial timed out.
type Result struct {
	Onset    time.Time
	TimedOut bool
	Response *display.Side
	Choice   *int
	RT       *time.Duration
	// Outcomes are the resolved outcomes of option 1 and option 2.
	Outcomes [2]float64
	Lock     time.Duration
	Reward   float64
	Total    float64
	ITI      time.Duration
}

// Trial is a single-use state machine over one TrialSpec.
type Trial struct {
	Spec  conditions.TrialSpec
	Index int

	env      Env
	state    State
	stim1    display.Side
	slots    [2]display.Slot
	feedback [2]string
	iti      time.Duration
	result   Result
}

// New returns a trial in state Created. index is the 1-based position of the
// trial in the session.
func New(env Env, spec conditions.TrialSpec, index int) *Trial {
	if env.Events == nil {
		env.Events = logging.DiscardEvents()
	}
	return &Trial{Spec: spec, Index: index, env: env}
}

// State returns the current lifecycle step.
func (t *Trial) State() State {
	return t.state
}

// Result returns what the trial has produced so far.
func (t *Trial) Result() Result {
	return t.result
}

// Execute runs prepare, run and log in sequence.
func (t *Trial) Execute(ctx context.Context) (Result, error) {
	if err := t.Prepare(); err != nil {
		return t.result, err
	}
	if err := t.Run(ctx); err != nil {
		return t.result, err
	}
	if err := t.Log(); err != nil {
		return t.result, err
	}
	return t.result, nil
}

// Prepare resolves everything the trial shows and pays before anything is
// drawn: option content, side assignment, outcomes and the jittered ITI.
// Every failure is a configuration error.
func (t *Trial) Prepare() error {
	if t.state != Created {
		return illegal(t.state, Prepared)
	}

	stim1, err := conditions.ParseSide(t.Spec.Stim1Pos)
	if err != nil {
		return goerr.Wrap(err, "prepare trial", goerr.V("trial_id", t.Spec.TrialID))
	}
	t.stim1 = stim1

	outcomes, err := outcome.ResolvePair(t.env.Session.Outcomes, t.Spec)
	if err != nil {
		return goerr.Wrap(err, "prepare trial", goerr.V("trial_id", t.Spec.TrialID))
	}
	t.result.Outcomes = outcomes

	for i, o := range t.Spec.Options {
		slot := display.Slot{Visible: true, Opacity: 1}
		if t.Spec.Phase.Symbolic() {
			img, err := t.env.Session.Stimuli.Path(o.Symbol)
			if err != nil {
				return goerr.Wrap(err, "prepare trial", goerr.V("trial_id", t.Spec.TrialID))
			}
			slot.Image = img
		} else {
			slot.Label = ExplicitLabel(o)
		}
		t.slots[conditions.SideOf(stim1, i+1)] = slot

		switch t.Spec.Feedback {
		case conditions.FeedbackComplete, conditions.FeedbackPartial:
			t.feedback[i] = datalog.FormatSigned(outcomes[i])
		case conditions.FeedbackNone:
			t.feedback[i] = Placeholder
		}
	}

	t.iti = t.env.Session.ITI()
	return t.transition(Prepared)
}

// Run presents the trial and waits through every timed step. A quit press
// returns errs.ErrQuit; a cancelled context returns the session's
// termination cause. A timeout is not an error.
func (t *Trial) Run(ctx context.Context) error {
	if t.state != Prepared {
		return illegal(t.state, StimulusShown)
	}
	cfg := t.env.Session.Config
	dev := t.env.Device

	onset, err := dev.Present(ctx, t.stimulusFrame())
	if err != nil {
		return errs.Abort(ctx, err)
	}
	t.result.Onset = onset
	if err := t.transition(StimulusShown); err != nil {
		return err
	}
	if err := t.transition(ResponseWindowOpen); err != nil {
		return err
	}

	window := cfg.Timeout()
	press, ok, err := dev.WaitKeys(ctx, t.env.Keys.Keys(), remaining(window, dev.Now().Sub(onset)))
	if err != nil {
		return errs.Abort(ctx, err)
	}

	switch {
	case ok && keys.Matches(press.Key, t.env.Keys.Quit):
		t.env.Events.Warn("trial.quit", t.attrs(slog.Time("at", press.At))...)
		return goerr.Wrap(errs.ErrQuit, "quit during response window", goerr.V("trial_id", t.Spec.TrialID))

	case ok && inWindow(window, press.At.Sub(onset)):
		side := display.Left
		if keys.Matches(press.Key, t.env.Keys.Right) {
			side = display.Right
		}
		rt := press.At.Sub(onset)
		choice := conditions.ChoiceFor(t.stim1, side)
		t.result.Response = &side
		t.result.Choice = &choice
		t.result.RT = &rt
		t.env.Events.Info("trial.response", t.attrs(
			slog.String("key", press.Key),
			slog.String("side", side.String()),
			slog.Int("choice", choice),
			slog.Duration("rt", rt),
		)...)
		if err := t.transition(Responded); err != nil {
			return err
		}

	default:
		t.result.TimedOut = true
		if err := t.transition(TimedOut); err != nil {
			return err
		}
	}

	if err := t.transition(ChoiceLocked); err != nil {
		return err
	}
	if !t.result.TimedOut {
		t.result.Lock = t.lockDuration()
		if err := t.highlight(ctx, *t.result.Response, t.result.Lock); err != nil {
			return errs.Abort(ctx, err)
		}
		t.result.Reward = t.result.Outcomes[*t.result.Choice-1]
	}
	t.result.Total = t.env.Session.AddReward(t.Spec.Phase, t.result.Reward)

	if t.Spec.Feedback != conditions.FeedbackSkip {
		if err := t.transition(OutcomeShown); err != nil {
			return err
		}
		if _, err := dev.Present(ctx, t.feedbackFrame()); err != nil {
			return errs.Abort(ctx, err)
		}
		if err := dev.Wait(ctx, cfg.OutcomeDuration()); err != nil {
			return errs.Abort(ctx, err)
		}
	}

	if err := t.transition(IntervalWait); err != nil {
		return err
	}
	if _, err := dev.Present(ctx, display.Blank()); err != nil {
		return errs.Abort(ctx, err)
	}
	if err := dev.Wait(ctx, t.iti); err != nil {
		return errs.Abort(ctx, err)
	}
	t.result.ITI = t.iti
	return nil
}

// Log writes the trial record. It succeeds once, after Run; a second call
// returns errs.ErrAlreadyLogged.
func (t *Trial) Log() error {
	switch t.state {
	case Logged:
		return goerr.Wrap(errs.ErrAlreadyLogged, "log trial", goerr.V("trial_id", t.Spec.TrialID))
	case IntervalWait:
	default:
		return illegal(t.state, Logged)
	}

	if t.env.Sink != nil {
		if err := t.env.Sink.Write(t.Record()); err != nil {
			return fmt.Errorf("log trial %s: %w", t.Spec.TrialID, err)
		}
	}
	return t.transition(Logged)
}

// Record returns the log entry of the trial.
func (t *Trial) Record() datalog.Record {
	s, r := t.Spec, t.result
	rec := datalog.Record{
		Index:        t.Index,
		TrialID:      s.TrialID,
		Phase:        string(s.Phase),
		Block:        s.Block,
		TrialType:    s.TrialType,
		Option1:      s.Options[0].Symbol,
		Option2:      s.Options[1].Symbol,
		Feedback:     string(s.Feedback),
		Stim1Pos:     s.Stim1Pos,
		Randomness:   string(s.Randomness),
		Probability1: s.Options[0].Probability,
		Probability2: s.Options[1].Probability,
		Outcome1:     s.Options[0].Potential,
		Outcome2:     s.Options[1].Potential,
		Actual1:      s.Options[0].Precomputed,
		Actual2:      s.Options[1].Precomputed,
		Resolved1:    r.Outcomes[0],
		Resolved2:    r.Outcomes[1],
		Onset:        r.Onset,
		TimedOut:     r.TimedOut,
		Choice:       r.Choice,
		RT:           r.RT,
		Reward:       r.Reward,
		Total:        r.Total,
		ITI:          r.ITI,
	}
	if t.env.Session != nil {
		rec.SessionID = t.env.Session.ID
	}
	if r.Response != nil {
		side := r.Response.String()
		rec.Response = &side
	}
	return rec
}

func (t *Trial) transition(to State) error {
	if !CanTransition(t.state, to) {
		return illegal(t.state, to)
	}
	t.state = to
	t.env.Events.Debug("trial.state", t.attrs(
		slog.String("state", to.String()),
		slog.Time("at", t.env.Device.Now()),
	)...)
	return nil
}

func (t *Trial) attrs(extra ...any) []any {
	base := []any{
		slog.Int("trial_index", t.Index),
		slog.String("trial_id", t.Spec.TrialID),
		slog.String("phase", string(t.Spec.Phase)),
	}
	return append(base, extra...)
}

// remaining is what is left of a response window that opened elapsed ago.
// A zero window has no limit; a used-up one still waits a nanosecond so it
// never turns into "no limit".
func remaining(window, elapsed time.Duration) time.Duration {
	if window <= 0 {
		return 0
	}
	return max(window-elapsed, time.Nanosecond)
}

// inWindow reports whether a press rt after onset answers the window.
func inWindow(window, rt time.Duration) bool {
	return window <= 0 || rt < window
}

func (t *Trial) lockDuration() time.Duration {
	cfg := t.env.Session.Config
	if !cfg.DurationFixedResponse {
		return cfg.ChoiceDuration()
	}
	return LockDuration(cfg.Timeout(), *t.result.RT)
}

// highlight outlines the chosen side for lock. With animation enabled the
// outline opacity follows a cosine at the configured frame rate, and the
// last frame wait is clipped so the loop never runs past lock.
func (t *Trial) highlight(ctx context.Context, side display.Side, lock time.Duration) error {
	cfg := t.env.Session.Config
	dev := t.env.Device
	frame := t.stimulusFrame()
	frame.Slots[side].Highlight = true

	interval := cfg.FrameInterval()
	if cfg.AnimationSpeed <= 0 || interval <= 0 {
		if _, err := dev.Present(ctx, frame); err != nil {
			return err
		}
		return dev.Wait(ctx, lock)
	}

	var elapsed time.Duration
	for {
		frame.Slots[side].Opacity = Opacity(cfg.AnimationSpeed, elapsed)
		if _, err := dev.Present(ctx, frame); err != nil {
			return err
		}
		step := min(interval, lock-elapsed)
		if step <= 0 {
			return nil
		}
		if err := dev.Wait(ctx, step); err != nil {
			return err
		}
		elapsed += step
		if elapsed >= lock {
			return nil
		}
	}
}

func (t *Trial) stimulusFrame() display.Frame {
	return display.Frame{Slots: t.slots}
}

func (t *Trial) feedbackFrame() display.Frame {
	f := t.stimulusFrame()
	for i := range t.Spec.Options {
		slot := &f.Slots[conditions.SideOf(t.stim1, i+1)]
		slot.Outcome = Placeholder
		slot.Salience = display.Masked

		switch t.Spec.Feedback {
		case conditions.FeedbackComplete:
			slot.Outcome = t.feedback[i]
			slot.Salience = display.Full
		case conditions.FeedbackPartial:
			if !t.result.TimedOut && *t.result.Choice == i+1 {
				slot.Outcome = t.feedback[i]
				slot.Salience = display.Full
			}
		}
	}
	return f
}

// LockDuration is the choice-lock time under fixed response: what is left
// of the response window, never negative.
func LockDuration(timeout, rt time.Duration) time.Duration {
	return max(0, timeout-rt)
}

// Opacity is the highlight opacity at time t into the choice animation.
func Opacity(speed float64, t time.Duration) float64 {
	return 0.5 + 0.5*math.Cos(2*math.Pi*speed*t.Seconds())
}

// ExplicitLabel renders an explicit option as its probability and outcome.
func ExplicitLabel(o conditions.Option) string {
	var p, v float64
	if o.Probability != nil {
		p = math.Round(*o.Probability*10000) / 100
	}
	if o.Potential != nil {
		v = *o.Potential
	}
	return fmt.Sprintf("%s%%\n%s", datalog.FormatNumber(p), datalog.FormatNumber(v))
}
