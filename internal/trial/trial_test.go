package trial

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodexForgeBR/rl-context-task/internal/conditions"
	"github.com/CodexForgeBR/rl-context-task/internal/config"
	"github.com/CodexForgeBR/rl-context-task/internal/datalog"
	"github.com/CodexForgeBR/rl-context-task/internal/display"
	"github.com/CodexForgeBR/rl-context-task/internal/errs"
	"github.com/CodexForgeBR/rl-context-task/internal/headless"
	"github.com/CodexForgeBR/rl-context-task/internal/keys"
	"github.com/CodexForgeBR/rl-context-task/internal/session"
	"github.com/CodexForgeBR/rl-context-task/internal/stimuli"
)

var epoch = time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }

type fixture struct {
	dev     *headless.Device
	sink    *datalog.Memory
	session *session.State
	env     Env
}

func newFixture(t *testing.T, r headless.Responder, mutate ...func(*config.Config)) *fixture {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.AnimationSpeed = 0
	for _, m := range mutate {
		m(cfg)
	}
	require.NoError(t, cfg.Validate())

	st := session.New(cfg, 7, epoch)
	st.Stimuli = stimuli.Map{"s1": "img/s1.png", "s2": "img/s2.png"}

	fx := &fixture{
		dev:     headless.New(epoch, r),
		sink:    &datalog.Memory{},
		session: st,
	}
	fx.env = Env{
		Device:  fx.dev,
		Keys:    keys.FromConfig(cfg).Response,
		Session: st,
		Sink:    fx.sink,
	}
	return fx
}

func pseudoSpec(stim1pos string, fb conditions.Feedback, o1, o2 float64) conditions.TrialSpec {
	return conditions.TrialSpec{
		Row:        1,
		TrialID:    "1",
		Phase:      conditions.PhaseLearning,
		Block:      "1",
		TrialType:  "A",
		Feedback:   fb,
		Randomness: conditions.Pseudorandom,
		Stim1Pos:   stim1pos,
		Options: [2]conditions.Option{
			{Symbol: "s1", Precomputed: f(o1)},
			{Symbol: "s2", Precomputed: f(o2)},
		},
	}
}

func press(key string, after time.Duration) *headless.Script {
	return &headless.Script{Steps: []headless.Step{{Key: key, After: after}}}
}

func TestRespondedTrial(t *testing.T) {
	fx := newFixture(t, press("f", 700*time.Millisecond))
	tr := New(fx.env, pseudoSpec("right", conditions.FeedbackComplete, 4, 9), 1)

	res, err := tr.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Logged, tr.State())

	require.NotNil(t, res.Response)
	assert.Equal(t, display.Left, *res.Response)
	require.NotNil(t, res.Choice)
	assert.Equal(t, 2, *res.Choice, "option 1 sits right, so left is option 2")
	require.NotNil(t, res.RT)
	assert.Equal(t, 700*time.Millisecond, *res.RT)
	assert.False(t, res.TimedOut)
	assert.Equal(t, [2]float64{4, 9}, res.Outcomes)
	assert.Equal(t, 9.0, res.Reward)
	assert.Equal(t, 9.0, res.Total)
	assert.Equal(t, 500*time.Millisecond, res.Lock)
	assert.Equal(t, 200*time.Millisecond, res.ITI)

	// response + lock + outcome + iti
	assert.Equal(t, epoch.Add(700*time.Millisecond+500*time.Millisecond+time.Second+200*time.Millisecond), fx.dev.Now())

	require.Len(t, fx.sink.Records, 1)
	rec := fx.sink.Records[0]
	assert.Equal(t, fx.session.ID, rec.SessionID)
	assert.Equal(t, "left", *rec.Response)
	assert.Equal(t, 2, *rec.Choice)
	assert.Equal(t, 9.0, rec.Total)
	assert.Equal(t, 200*time.Millisecond, rec.ITI)
}

func TestStimulusSidesFollowPositionFlag(t *testing.T) {
	fx := newFixture(t, press("j", 0))
	tr := New(fx.env, pseudoSpec("right", conditions.FeedbackComplete, 1, 2), 1)
	_, err := tr.Execute(context.Background())
	require.NoError(t, err)

	stim := fx.dev.Frames[0]
	assert.Equal(t, "img/s1.png", stim.Slots[display.Right].Image)
	assert.Equal(t, "img/s2.png", stim.Slots[display.Left].Image)
	assert.False(t, stim.Slots[display.Left].Highlight)

	lock := fx.dev.Frames[1]
	assert.True(t, lock.Slots[display.Right].Highlight)
	assert.False(t, lock.Slots[display.Left].Highlight)
	assert.Equal(t, 1, *tr.Result().Choice)
}

func TestTimedOutTrial(t *testing.T) {
	fx := newFixture(t, &headless.Script{Steps: []headless.Step{{NoResponse: true}}})
	fx.session.AddReward(conditions.PhaseLearning, 3)
	tr := New(fx.env, pseudoSpec("left", conditions.FeedbackComplete, 4, 9), 1)

	res, err := tr.Execute(context.Background())
	require.NoError(t, err)

	assert.True(t, res.TimedOut)
	assert.Nil(t, res.Response)
	assert.Nil(t, res.Choice)
	assert.Nil(t, res.RT)
	assert.Zero(t, res.Reward)
	assert.Equal(t, 3.0, res.Total)
	assert.Zero(t, res.Lock)

	// timeout + outcome + iti, no choice lock
	assert.Equal(t, epoch.Add(5*time.Second+time.Second+200*time.Millisecond), fx.dev.Now())

	require.Len(t, fx.dev.Frames, 3)
	for _, fr := range fx.dev.Frames {
		assert.False(t, fr.Slots[display.Left].Highlight)
		assert.False(t, fr.Slots[display.Right].Highlight)
	}
	assert.True(t, fx.dev.Frames[2].IsBlank(), "ITI blank follows a timeout too")

	rec := fx.sink.Records[0]
	assert.True(t, rec.TimedOut)
	assert.Nil(t, rec.Response)
	assert.Nil(t, rec.Choice)
	assert.Nil(t, rec.RT)
}

func TestChoiceNilIffTimedOut(t *testing.T) {
	steps := []headless.Step{
		{Key: "f", After: 100 * time.Millisecond},
		{NoResponse: true},
		{Key: "j", After: 4900 * time.Millisecond},
		{Key: "j", After: 5 * time.Second},
	}
	for i, step := range steps {
		fx := newFixture(t, &headless.Script{Steps: []headless.Step{step}})
		res, err := New(fx.env, pseudoSpec("left", conditions.FeedbackNone, 1, 2), i+1).Execute(context.Background())
		require.NoError(t, err)

		assert.Equal(t, res.TimedOut, res.Choice == nil, "step %d", i)
		assert.Equal(t, res.TimedOut, res.RT == nil, "step %d", i)
		assert.Equal(t, res.TimedOut, res.Response == nil, "step %d", i)
		if res.Choice != nil {
			assert.Contains(t, []int{1, 2}, *res.Choice)
		}
	}
}

func TestFeedbackFrames(t *testing.T) {
	// Option 1 sits left and is chosen with "f".
	tests := []struct {
		name      string
		feedback  conditions.Feedback
		timedOut  bool
		wantLeft  display.Slot
		wantRight display.Slot
	}{
		{"complete", conditions.FeedbackComplete, false,
			display.Slot{Outcome: "+4", Salience: display.Full},
			display.Slot{Outcome: "-1", Salience: display.Full}},
		{"partial", conditions.FeedbackPartial, false,
			display.Slot{Outcome: "+4", Salience: display.Full},
			display.Slot{Outcome: Placeholder, Salience: display.Masked}},
		{"none", conditions.FeedbackNone, false,
			display.Slot{Outcome: Placeholder, Salience: display.Masked},
			display.Slot{Outcome: Placeholder, Salience: display.Masked}},
		{"complete timed out", conditions.FeedbackComplete, true,
			display.Slot{Outcome: "+4", Salience: display.Full},
			display.Slot{Outcome: "-1", Salience: display.Full}},
		{"partial timed out", conditions.FeedbackPartial, true,
			display.Slot{Outcome: Placeholder, Salience: display.Masked},
			display.Slot{Outcome: Placeholder, Salience: display.Masked}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := headless.Step{Key: "f", After: 300 * time.Millisecond}
			if tt.timedOut {
				step = headless.Step{NoResponse: true}
			}
			fx := newFixture(t, &headless.Script{Steps: []headless.Step{step}})
			_, err := New(fx.env, pseudoSpec("left", tt.feedback, 4, -1), 1).Execute(context.Background())
			require.NoError(t, err)

			fb := fx.dev.Frames[len(fx.dev.Frames)-2]
			assert.Equal(t, tt.wantLeft.Outcome, fb.Slots[display.Left].Outcome)
			assert.Equal(t, tt.wantLeft.Salience, fb.Slots[display.Left].Salience)
			assert.Equal(t, tt.wantRight.Outcome, fb.Slots[display.Right].Outcome)
			assert.Equal(t, tt.wantRight.Salience, fb.Slots[display.Right].Salience)
		})
	}
}

func TestSkipFeedbackShowsNoOutcome(t *testing.T) {
	fx := newFixture(t, press("f", 300*time.Millisecond))
	tr := New(fx.env, pseudoSpec("left", conditions.FeedbackSkip, 4, 1), 1)
	res, err := tr.Execute(context.Background())
	require.NoError(t, err)

	require.Len(t, fx.dev.Frames, 3, "stimulus, choice lock, blank")
	for _, fr := range fx.dev.Frames {
		assert.Equal(t, display.Hidden, fr.Slots[display.Left].Salience)
		assert.Equal(t, display.Hidden, fr.Slots[display.Right].Salience)
	}
	assert.Equal(t, 4.0, res.Reward, "reward is paid without feedback")
	assert.Equal(t, epoch.Add(300*time.Millisecond+500*time.Millisecond+200*time.Millisecond), fx.dev.Now())
}

func TestFixedResponseFillsTheWindow(t *testing.T) {
	fx := newFixture(t, press("f", 1200*time.Millisecond), func(c *config.Config) {
		c.DurationTimeout = 3
		c.DurationFixedResponse = true
	})
	res, err := New(fx.env, pseudoSpec("left", conditions.FeedbackSkip, 1, 1), 1).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1800*time.Millisecond, res.Lock)
	assert.Equal(t, epoch.Add(3*time.Second+200*time.Millisecond), fx.dev.Now(), "response plus lock equals the timeout")
}

func TestLockDurationFloorsAtZero(t *testing.T) {
	assert.Equal(t, 2*time.Second, LockDuration(3*time.Second, time.Second))
	assert.Zero(t, LockDuration(time.Second, time.Second))
	assert.Zero(t, LockDuration(time.Second, 1500*time.Millisecond))
}

func TestAnimatedLockNeverOverruns(t *testing.T) {
	fx := newFixture(t, press("f", 0), func(c *config.Config) {
		c.AnimationSpeed = 1
		c.AnimationFrameRate = 40
		c.DurationChoice = 0.06
	})
	res, err := New(fx.env, pseudoSpec("left", conditions.FeedbackSkip, 1, 1), 1).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 60*time.Millisecond, res.Lock)
	// stimulus, frames at 0 and 25ms and 50ms, blank
	require.Len(t, fx.dev.Frames, 5)
	assert.InDelta(t, 1.0, fx.dev.Frames[1].Slots[display.Left].Opacity, 1e-9)
	assert.InDelta(t, Opacity(1, 25*time.Millisecond), fx.dev.Frames[2].Slots[display.Left].Opacity, 1e-9)
	assert.Equal(t, epoch.Add(60*time.Millisecond+200*time.Millisecond), fx.dev.Now())
}

func TestOpacity(t *testing.T) {
	assert.InDelta(t, 1.0, Opacity(0.5, 0), 1e-9)
	assert.InDelta(t, 0.0, Opacity(0.5, time.Second), 1e-9)
	assert.InDelta(t, 0.5, Opacity(0.5, 500*time.Millisecond), 1e-9)
}

func TestQuitEndsTrialImmediately(t *testing.T) {
	fx := newFixture(t, press("q", 200*time.Millisecond))
	tr := New(fx.env, pseudoSpec("left", conditions.FeedbackComplete, 1, 1), 1)

	require.NoError(t, tr.Prepare())
	err := tr.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrQuit)
	assert.Equal(t, ResponseWindowOpen, tr.State())
	assert.Len(t, fx.dev.Frames, 1)
	assert.Empty(t, fx.sink.Records)
}

func TestCancelledContextReportsCause(t *testing.T) {
	fx := newFixture(t, press("f", 0))
	tr := New(fx.env, pseudoSpec("left", conditions.FeedbackComplete, 1, 1), 1)
	require.NoError(t, tr.Prepare())

	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(errs.ErrInterrupted)
	err := tr.Run(ctx)
	assert.ErrorIs(t, err, errs.ErrInterrupted)
}

func TestLogIsOneShot(t *testing.T) {
	fx := newFixture(t, press("f", 0))
	tr := New(fx.env, pseudoSpec("left", conditions.FeedbackNone, 1, 1), 1)

	require.NoError(t, tr.Prepare())
	assert.ErrorIs(t, tr.Log(), errs.ErrIllegalTransition, "log before run")

	require.NoError(t, tr.Run(context.Background()))
	require.NoError(t, tr.Log())
	assert.ErrorIs(t, tr.Log(), errs.ErrAlreadyLogged)
	assert.Len(t, fx.sink.Records, 1)
}

func TestStepsOutOfOrder(t *testing.T) {
	fx := newFixture(t, press("f", 0))
	tr := New(fx.env, pseudoSpec("left", conditions.FeedbackNone, 1, 1), 1)

	assert.ErrorIs(t, tr.Run(context.Background()), errs.ErrIllegalTransition)
	require.NoError(t, tr.Prepare())
	assert.ErrorIs(t, tr.Prepare(), errs.ErrIllegalTransition)
}

func TestPrepareFailsBeforeRendering(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*conditions.TrialSpec)
		invalidSpec bool
	}{
		{"bad position flag", func(s *conditions.TrialSpec) { s.Stim1Pos = "top" }, true},
		{"missing probability", func(s *conditions.TrialSpec) {
			s.Randomness = conditions.Random
			s.Options[0].Potential = f(1)
		}, false},
		{"missing precomputed outcome", func(s *conditions.TrialSpec) { s.Options[1].Precomputed = nil }, false},
		{"unknown symbol", func(s *conditions.TrialSpec) { s.Options[0].Symbol = "zz" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, press("f", 0))
			spec := pseudoSpec("left", conditions.FeedbackComplete, 1, 1)
			tt.mutate(&spec)

			tr := New(fx.env, spec, 1)
			err := tr.Prepare()
			require.Error(t, err)
			assert.True(t, errs.IsConfiguration(err), "got %v", err)
			assert.Equal(t, tt.invalidSpec, errors.Is(err, errs.ErrInvalidSpec))
			assert.Equal(t, Created, tr.State())
			assert.Empty(t, fx.dev.Frames)
		})
	}
}

func TestRewardAccumulatesAcrossTrials(t *testing.T) {
	fx := newFixture(t, headless.NewScript("f", "f", "f", "f"))

	var totals []float64
	for i, r := range []float64{5, 0, 3} {
		res, err := New(fx.env, pseudoSpec("left", conditions.FeedbackComplete, r, 99), i+1).Execute(context.Background())
		require.NoError(t, err)
		totals = append(totals, res.Total)
	}
	assert.Equal(t, []float64{5, 5, 8}, totals)

	training := pseudoSpec("left", conditions.FeedbackComplete, 10, 10)
	training.Phase = conditions.PhaseTraining
	res, err := New(fx.env, training, 4).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.Reward)
	assert.Equal(t, 8.0, res.Total)
	assert.Equal(t, 8.0, fx.session.Total())
}

func TestRandomOutcomesAreResolvedAtPrepare(t *testing.T) {
	fx := newFixture(t, press("f", 0))
	spec := pseudoSpec("left", conditions.FeedbackComplete, 0, 0)
	spec.Randomness = conditions.Random
	spec.Options[0] = conditions.Option{Symbol: "s1", Probability: f(1), Potential: f(6)}
	spec.Options[1] = conditions.Option{Symbol: "s2", Probability: f(0), Potential: f(6)}

	tr := New(fx.env, spec, 1)
	require.NoError(t, tr.Prepare())
	assert.Equal(t, [2]float64{6, 0}, tr.Result().Outcomes)
}

func TestExplicitPhaseShowsLabels(t *testing.T) {
	fx := newFixture(t, press("j", 0))
	spec := conditions.TrialSpec{
		TrialID:    "e1",
		Phase:      conditions.PhaseExplicit,
		Block:      "1",
		TrialType:  "E",
		Feedback:   conditions.FeedbackComplete,
		Randomness: conditions.Random,
		Stim1Pos:   "left",
		Options: [2]conditions.Option{
			{Probability: f(0.75), Potential: f(10)},
			{Probability: f(0.1), Potential: f(-2.5)},
		},
	}
	_, err := New(fx.env, spec, 1).Execute(context.Background())
	require.NoError(t, err)

	stim := fx.dev.Frames[0]
	assert.Equal(t, "75%\n10", stim.Slots[display.Left].Label)
	assert.Equal(t, "10%\n-2.5", stim.Slots[display.Right].Label)
	assert.Empty(t, stim.Slots[display.Left].Image)
}

func TestStateTransitions(t *testing.T) {
	assert.True(t, CanTransition(Created, Prepared))
	assert.True(t, CanTransition(ResponseWindowOpen, TimedOut))
	assert.True(t, CanTransition(ChoiceLocked, IntervalWait))
	assert.False(t, CanTransition(Logged, Created))
	assert.False(t, CanTransition(OutcomeShown, ChoiceLocked))
	assert.False(t, CanTransition(Prepared, Responded))
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "interval_wait", IntervalWait.String())
	assert.Equal(t, "unknown", State(99).String())
}

// slowScreen makes every frame take lag to reach the screen after its onset
// and records the timeout of each wait.
type slowScreen struct {
	*headless.Device
	lag      time.Duration
	timeouts []time.Duration
}

func (s *slowScreen) Present(ctx context.Context, f display.Frame) (time.Time, error) {
	onset, err := s.Device.Present(ctx, f)
	if err != nil {
		return onset, err
	}
	return onset, s.Device.Wait(ctx, s.lag)
}

func (s *slowScreen) WaitKeys(ctx context.Context, keys []string, timeout time.Duration) (display.Press, bool, error) {
	s.timeouts = append(s.timeouts, timeout)
	return s.Device.WaitKeys(ctx, keys, timeout)
}

func TestResponseWindowStartsAtOnset(t *testing.T) {
	fx := newFixture(t, press("f", 4900*time.Millisecond))
	screen := &slowScreen{Device: fx.dev, lag: 200 * time.Millisecond}
	fx.env.Device = screen

	res, err := New(fx.env, pseudoSpec("left", conditions.FeedbackComplete, 1, 1), 1).Execute(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, screen.timeouts)
	assert.Equal(t, 4800*time.Millisecond, screen.timeouts[0], "time spent presenting counts against the window")
	assert.True(t, res.TimedOut, "a press 5.1s after onset misses a 5s window")
	assert.Nil(t, res.RT)
	assert.Nil(t, res.Choice)
}

// latePress answers the response window with a press stamped after it closed.
type latePress struct {
	*headless.Device
	by time.Duration
}

func (l *latePress) WaitKeys(ctx context.Context, keys []string, timeout time.Duration) (display.Press, bool, error) {
	if timeout <= 0 {
		return l.Device.WaitKeys(ctx, keys, timeout)
	}
	at := l.Device.Now().Add(timeout + l.by)
	if err := l.Device.Wait(ctx, timeout+l.by); err != nil {
		return display.Press{}, false, err
	}
	return display.Press{Key: "f", At: at}, true, nil
}

func TestPressAfterWindowCountsAsTimeout(t *testing.T) {
	fx := newFixture(t, headless.NewScript())
	fx.env.Device = &latePress{Device: fx.dev, by: time.Millisecond}

	res, err := New(fx.env, pseudoSpec("left", conditions.FeedbackComplete, 4, 9), 1).Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.Nil(t, res.RT)
	assert.Zero(t, res.Reward)
}

func TestRemainingWindow(t *testing.T) {
	assert.Equal(t, time.Duration(0), remaining(0, time.Second), "no limit stays no limit")
	assert.Equal(t, 4*time.Second, remaining(5*time.Second, time.Second))
	assert.Equal(t, time.Nanosecond, remaining(5*time.Second, 6*time.Second), "a used-up window never becomes unlimited")
	assert.True(t, inWindow(0, time.Hour))
	assert.True(t, inWindow(5*time.Second, 4999*time.Millisecond))
	assert.False(t, inWindow(5*time.Second, 5*time.Second))
}
