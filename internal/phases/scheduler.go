package phases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"

	"github.com/CodexForgeBR/rl-context-task/internal/arrange"
	"github.com/CodexForgeBR/rl-context-task/internal/conditions"
	"github.com/CodexForgeBR/rl-context-task/internal/datalog"
	"github.com/CodexForgeBR/rl-context-task/internal/display"
	"github.com/CodexForgeBR/rl-context-task/internal/errs"
	"github.com/CodexForgeBR/rl-context-task/internal/instructions"
	"github.com/CodexForgeBR/rl-context-task/internal/keys"
	"github.com/CodexForgeBR/rl-context-task/internal/logging"
	"github.com/CodexForgeBR/rl-context-task/internal/slides"
	"github.com/CodexForgeBR/rl-context-task/internal/trial"
)

// Scheduler runs the trials of one phase: instructions, blocks in table
// order, trials in the configured arrangement, then the score slide.
type Scheduler struct {
	Env   trial.Env
	Keys  keys.Map
	Table *conditions.Table
	Decks *instructions.Decks

	// index is the 1-based running trial number of the session.
	index int
}

// Trials returns how many trials have run so far.
func (s *Scheduler) Trials() int {
	return s.index
}

// RunPhase runs phase p. A phase without trials shows neither instructions
// nor trials; the score slide still follows for task phases.
func (s *Scheduler) RunPhase(ctx context.Context, p conditions.Phase) error {
	cfg := s.Env.Session.Config
	events := s.events()
	specs := s.Table.Phase(p)

	if len(specs) == 0 {
		logging.Debug(fmt.Sprintf("No %s trials, skipping phase", p))
		events.Info("phase.skipped", slog.String("phase", string(p)))
		return s.score(ctx, p)
	}

	events.Info("phase.start", slog.String("phase", string(p)), slog.Int("trials", len(specs)))

	if _, _, err := s.navigator().Show(ctx, s.Decks.For(p)); err != nil {
		return err
	}

	blocks := conditions.Partition(specs)
	for i, b := range blocks {
		// Ordered before the divider so an unknown policy draws nothing.
		ordered, err := arrange.Order(cfg.TemporalArrangement, b.Trials, s.Env.Session.Shuffle)
		if err != nil {
			return err
		}

		if cfg.ShowBlockDividers {
			if err := s.divider(ctx, i+1, len(blocks)); err != nil {
				return err
			}
		}

		events.Debug("block.start", slog.String("phase", string(p)), slog.String("block", b.ID), slog.Int("trials", len(ordered)))
		if err := s.blank(ctx); err != nil {
			return err
		}

		for _, spec := range ordered {
			s.index++
			if _, err := trial.New(s.Env, spec, s.index).Execute(ctx); err != nil {
				return err
			}
		}
	}

	events.Info("phase.end", slog.String("phase", string(p)), slog.Float64("total", s.Env.Session.Total()))
	return s.score(ctx, p)
}

// ShowFinishOnly shows seq, ending only on one of the given bindings or quit.
// It returns the key that ended it.
func (s *Scheduler) ShowFinishOnly(ctx context.Context, seq []slides.Slide, finish ...key.Binding) (string, error) {
	n := s.navigator()
	n.Keys = s.Keys.Navigation.FinishOnly(finish...)
	k, _, err := n.Show(ctx, seq)
	return k, err
}

// ScoreText is the text of the score slide.
func ScoreText(total float64) string {
	return fmt.Sprintf("Your score so far: %s points", datalog.FormatNumber(total))
}

// DividerText is the text of a block divider slide.
func DividerText(i, n int, finish string) string {
	return fmt.Sprintf("Block %d of %d\n\nPress (%s) to begin.", i, n, finish)
}

func (s *Scheduler) score(ctx context.Context, p conditions.Phase) error {
	if p == conditions.PhaseTraining || !s.Env.Session.Config.ShowScoreAfterPhase {
		return nil
	}
	text := ScoreText(s.Env.Session.Total()) + fmt.Sprintf("\n\nPress (%s) to continue.", keys.First(s.Keys.Navigation.Finish))
	_, err := s.ShowFinishOnly(ctx, slides.Text(text), s.Keys.Navigation.Finish)
	return err
}

func (s *Scheduler) divider(ctx context.Context, i, n int) error {
	text := DividerText(i, n, keys.First(s.Keys.Navigation.Finish))
	_, err := s.ShowFinishOnly(ctx, slides.Text(text), s.Keys.Navigation.Finish)
	return err
}

func (s *Scheduler) blank(ctx context.Context) error {
	d := s.Env.Device
	if _, err := d.Present(ctx, display.Blank()); err != nil {
		return errs.Abort(ctx, err)
	}
	if err := d.Wait(ctx, s.Env.Session.Config.FirstTrialBlank()); err != nil {
		return errs.Abort(ctx, err)
	}
	return nil
}

func (s *Scheduler) navigator() *slides.Navigator {
	return &slides.Navigator{
		Device: s.Env.Device,
		Keys:   s.Keys.Navigation,
		Events: s.events(),
	}
}

func (s *Scheduler) events() *slog.Logger {
	if s.Env.Events == nil {
		return logging.DiscardEvents()
	}
	return s.Env.Events
}
