package phases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/CodexForgeBR/rl-context-task/internal/banner"
	"github.com/CodexForgeBR/rl-context-task/internal/conditions"
	"github.com/CodexForgeBR/rl-context-task/internal/config"
	"github.com/CodexForgeBR/rl-context-task/internal/datalog"
	"github.com/CodexForgeBR/rl-context-task/internal/display"
	"github.com/CodexForgeBR/rl-context-task/internal/errs"
	"github.com/CodexForgeBR/rl-context-task/internal/exitcode"
	"github.com/CodexForgeBR/rl-context-task/internal/instructions"
	"github.com/CodexForgeBR/rl-context-task/internal/keys"
	"github.com/CodexForgeBR/rl-context-task/internal/logging"
	"github.com/CodexForgeBR/rl-context-task/internal/session"
	"github.com/CodexForgeBR/rl-context-task/internal/slides"
	"github.com/CodexForgeBR/rl-context-task/internal/stimuli"
	"github.com/CodexForgeBR/rl-context-task/internal/trial"
)

// Runner runs one session from start to finish.
type Runner struct {
	Config *config.Config
	Device display.Device

	// EventConsole mirrors session events as text; nil disables the mirror.
	EventConsole io.Writer
	// SeedSource draws the session seed when none is configured.
	SeedSource *rand.Rand

	// Table, Decks and Sink are built from the settings when nil.
	Table *conditions.Table
	Decks *instructions.Decks
	Sink  datalog.Sink

	session    *session.State
	sched      *Scheduler
	keys       keys.Map
	paths      datalog.Paths
	events     *slog.Logger
	eventsFile *os.File
	phase      conditions.Phase
	startTime  time.Time
	closed     bool
}

// NewRunner creates a runner presenting through dev.
func NewRunner(cfg *config.Config, dev display.Device) *Runner {
	return &Runner{
		Config: cfg,
		Device: dev,
	}
}

// Session returns the session state, or nil before initialization.
func (r *Runner) Session() *session.State {
	return r.session
}

// Paths returns the output files of the session.
func (r *Runner) Paths() datalog.Paths {
	return r.paths
}

// Run executes the session phases in order and returns an exit code.
func (r *Runner) Run(ctx context.Context) int {
	// Phase 1: Init
	if code := r.phaseInit(); code >= 0 {
		return code
	}

	// Phase 2: Banner
	r.phaseBanner()

	// Phase 3: Training, with repeats
	if code := r.phaseTraining(ctx); code >= 0 {
		return code
	}

	// Phase 4: Task phases
	for _, p := range []conditions.Phase{conditions.PhaseLearning, conditions.PhaseTransfer, conditions.PhaseExplicit} {
		if code := r.phaseTask(ctx, p); code >= 0 {
			return code
		}
	}

	// Phase 5: Debriefing
	if code := r.phaseDebrief(ctx); code >= 0 {
		return code
	}

	// Phase 6: Completion
	return r.phaseCompletion()
}

func (r *Runner) phaseInit() int {
	logging.Phase("Initializing session")
	cfg := r.Config

	if err := cfg.Validate(); err != nil {
		return r.fail(err)
	}

	seed := cfg.Seed
	if seed == 0 {
		src := r.SeedSource
		if src == nil {
			src = rand.New(rand.NewSource(time.Now().UnixNano()))
		}
		seed = session.DrawSeed(src)
	}
	r.startTime = r.Device.Now()
	r.session = session.New(cfg, seed, r.startTime)
	logging.Debug(fmt.Sprintf("Session %s, seed %d", r.session.ID, seed))

	if r.Table == nil {
		table, err := conditions.LoadFile(cfg.ConditionsFile)
		if err != nil {
			return r.fail(err)
		}
		r.Table = table
	}
	logging.Info(fmt.Sprintf("Loaded %d trials from %s", len(r.Table.Specs), cfg.ConditionsFile))

	training := r.Table.Symbols(conditions.PhaseTraining)
	task := r.Table.Symbols(conditions.PhaseLearning, conditions.PhaseTransfer)
	if len(training)+len(task) > 0 {
		m, err := stimuli.Build(r.session.Master, cfg.StimuliDir, training, task)
		if err != nil {
			return r.fail(err)
		}
		r.session.Stimuli = m
	}

	if r.Decks == nil {
		r.Decks = instructions.Default(cfg)
		if cfg.InstructionsFile != "" {
			decks, err := instructions.LoadFile(cfg.InstructionsFile, r.Decks)
			if err != nil {
				return r.fail(err)
			}
			r.Decks = decks
		}
	}

	r.paths = datalog.PathsFor(cfg.DataDir, cfg.ExperimentLabel, cfg.Subject, r.startTime)
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return r.fail(errs.Config("cannot create data dir", pathValues(cfg.DataDir, err)...))
	}
	if r.Sink == nil {
		sink, err := r.openSinks()
		if err != nil {
			return r.fail(err)
		}
		r.Sink = sink
	}

	f, err := os.Create(r.paths.Events)
	if err != nil {
		return r.fail(errs.Config("cannot create event log", pathValues(r.paths.Events, err)...))
	}
	r.eventsFile = f
	r.events = logging.NewEventLogger(f, r.EventConsole, cfg.Verbose)

	snap := datalog.NewSnapshot(cfg, r.session.ID, seed, r.startTime)
	snap.LogfilePath = r.paths.Trials
	snap.ConditionsHash = r.Table.Hash
	snap.Stimuli = r.session.Stimuli
	if err := datalog.SaveSnapshot(snap, r.paths.Settings); err != nil {
		return r.fail(err)
	}

	r.keys = keys.FromConfig(cfg)
	r.sched = &Scheduler{
		Env: trial.Env{
			Device:  r.Device,
			Keys:    r.keys.Response,
			Session: r.session,
			Sink:    r.Sink,
			Events:  r.events,
		},
		Keys:  r.keys,
		Table: r.Table,
		Decks: r.Decks,
	}

	r.events.Info("session.start",
		slog.String("session_id", r.session.ID),
		slog.Int64("seed", seed),
		slog.String("subject", cfg.Subject),
		slog.Bool("simulated", cfg.Simulate),
	)
	return -1
}

func (r *Runner) openSinks() (datalog.Sink, error) {
	csvSink, err := datalog.CreateCSV(r.paths.Trials)
	if err != nil {
		return nil, errs.Config("cannot create trial log", pathValues(r.paths.Trials, err)...)
	}
	if !r.Config.SQLiteLog {
		return csvSink, nil
	}

	sqliteSink, err := datalog.OpenSQLite(r.paths.SQLite)
	if err != nil {
		_ = csvSink.Close()
		return nil, errs.Config("cannot open sqlite log", pathValues(r.paths.SQLite, err)...)
	}
	return datalog.Multi{csvSink, sqliteSink}, nil
}

func (r *Runner) phaseBanner() {
	banner.PrintStartupBanner(banner.StartupInfo{
		Experiment: r.Config.ExperimentName,
		SessionID:  r.session.ID,
		Subject:    r.Config.Subject,
		Seed:       r.session.Seed,
		Conditions: r.Config.ConditionsFile,
		Trials:     len(r.Table.Specs),
		Logfile:    r.paths.Trials,
		Simulated:  r.Config.Simulate,
	})
}

// phaseTraining runs training at most 1 + training_repeats_max times. After
// each run the participant chooses to repeat or continue, until the repeats
// are used up.
func (r *Runner) phaseTraining(ctx context.Context) int {
	r.phase = conditions.PhaseTraining
	logging.Phase("Training phase")

	if len(r.Table.Phase(conditions.PhaseTraining)) == 0 {
		logging.Info("No training trials, skipping")
		return -1
	}

	finish := keys.First(r.keys.Navigation.Finish)
	for repeats := 0; ; repeats++ {
		if err := r.sched.RunPhase(ctx, conditions.PhaseTraining); err != nil {
			return r.fail(err)
		}

		if repeats >= r.Config.TrainingRepeatsMax {
			r.events.Info("training.limit", slog.Int("repeats", repeats))
			notice := fmt.Sprintf("Training complete.\n\nThe maximum number of training rounds is reached.\nPress (%s) to continue with the task.", finish)
			if _, err := r.sched.ShowFinishOnly(ctx, slides.Text(notice), r.keys.Navigation.Finish); err != nil {
				return r.fail(err)
			}
			return -1
		}

		prompt := fmt.Sprintf("Training complete.\n\nPress (%s) to repeat the training or (%s) to continue with the task.",
			keys.First(r.keys.Repeat), finish)
		k, err := r.sched.ShowFinishOnly(ctx, slides.Text(prompt), r.keys.Navigation.Finish, r.keys.Repeat)
		if err != nil {
			return r.fail(err)
		}
		if keys.Matches(k, r.keys.Navigation.Finish) {
			return -1
		}
		logging.Info(fmt.Sprintf("Repeating training (%d/%d)", repeats+1, r.Config.TrainingRepeatsMax))
		r.events.Info("training.repeat", slog.Int("repeat", repeats+1))
	}
}

func (r *Runner) phaseTask(ctx context.Context, p conditions.Phase) int {
	r.phase = p
	logging.Phase(fmt.Sprintf("%s phase", titleCase(string(p))))

	if err := r.sched.RunPhase(ctx, p); err != nil {
		return r.fail(err)
	}
	logging.Debug(fmt.Sprintf("Total after %s: %s", p, datalog.FormatNumber(r.session.Total())))
	return -1
}

func (r *Runner) phaseDebrief(ctx context.Context) int {
	r.phase = "debriefing"
	logging.Phase("Debriefing")

	nav := slides.Navigator{
		Device: r.Device,
		Keys:   r.keys.Navigation,
		Events: r.events,
	}
	if _, _, err := nav.Show(ctx, r.Decks.Debriefing); err != nil {
		return r.fail(err)
	}
	return -1
}

func (r *Runner) phaseCompletion() int {
	r.events.Info("session.end",
		slog.String("status", exitcode.Status(exitcode.Success)),
		slog.Int("trials", r.sched.Trials()),
		slog.Float64("total", r.session.Total()),
	)
	if err := r.close(); err != nil {
		logging.Error(fmt.Sprintf("Failed to close logs: %v", err))
		return exitcode.Error
	}

	elapsed := int(r.Device.Now().Sub(r.startTime).Seconds())
	banner.PrintCompletionBanner(r.sched.Trials(), r.session.Total(), elapsed)
	logging.Success(fmt.Sprintf("Data saved to %s", r.paths.Trials))
	return exitcode.Success
}

// fail closes the logs and maps err to an exit code. Quits and interrupts
// are designed exits; anything else is reported as an error.
func (r *Runner) fail(err error) int {
	trials := 0
	if r.sched != nil {
		trials = r.sched.Trials()
	}

	code := exitcode.For(err)
	switch code {
	case exitcode.Interrupted:
		r.endEvent(exitcode.Status(code), trials)
		r.closeQuietly()
		banner.PrintInterruptedBanner(trials, string(r.phase))
		return code
	case exitcode.Quit:
		r.endEvent(exitcode.Status(code), trials)
		r.closeQuietly()
		banner.PrintQuitBanner(trials, string(r.phase), r.paths.Trials)
		return code
	}

	r.endEvent(exitcode.Status(code), trials, slog.String("error", err.Error()))
	r.closeQuietly()
	if errs.IsConfiguration(err) {
		logging.Error(fmt.Sprintf("Configuration error: %v", err))
	} else {
		logging.Error(fmt.Sprintf("Session failed: %v", err))
	}
	return code
}

func (r *Runner) endEvent(status string, trials int, extra ...any) {
	if r.events == nil {
		return
	}
	args := append([]any{slog.String("status", status), slog.Int("trials", trials), slog.String("phase", string(r.phase))}, extra...)
	r.events.Info("session.end", args...)
}

// close flushes and closes the trial sinks and the event log once.
func (r *Runner) close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var errList []error
	if r.Sink != nil {
		errList = append(errList, r.Sink.Close())
	}
	if r.eventsFile != nil {
		errList = append(errList, r.eventsFile.Close())
	}
	return errors.Join(errList...)
}

func (r *Runner) closeQuietly() {
	if err := r.close(); err != nil {
		logging.Warn(fmt.Sprintf("Failed to close logs: %v", err))
	}
}

func pathValues(path string, err error) []goerr.Option {
	return []goerr.Option{goerr.V("path", path), goerr.V("error", err.Error())}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
