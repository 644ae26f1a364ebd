package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/CodexForgeBR/rl-context-task/internal/banner"
	"github.com/CodexForgeBR/rl-context-task/internal/cli"
	"github.com/CodexForgeBR/rl-context-task/internal/config"
	"github.com/CodexForgeBR/rl-context-task/internal/headless"
	"github.com/CodexForgeBR/rl-context-task/internal/logging"
	"github.com/CodexForgeBR/rl-context-task/internal/phases"
	sighandler "github.com/CodexForgeBR/rl-context-task/internal/signal"
	"github.com/CodexForgeBR/rl-context-task/internal/terminal"
)

// Set with -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cfg := config.NewDefaultConfig()

	rootCmd := &cobra.Command{
		Use:     "rl-context-task",
		Short:   "Two-alternative reinforcement-learning task with contextual feedback",
		Long:    "rl-context-task runs a training, learning, transfer and explicit phase of a two-alternative choice task and logs every trial.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.ValidateFlags(cmd, cfg); err != nil {
				return err
			}
			return runSession(cmd, cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cli.BindFlags(rootCmd, cfg)
	cli.SetCustomHelp(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSession(cmd *cobra.Command, cfg *config.Config) error {
	cfg, err := loadSettings(cmd, cfg)
	if err != nil {
		return err
	}
	logging.SetVerbose(cfg.Verbose)

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	sighandler.SetupSignalHandler(ctx, cancel, func() {
		logging.Warn("Interrupted, closing session...")
	})

	if cfg.Simulate {
		os.Exit(simulate(ctx, cfg))
	}
	os.Exit(present(ctx, cancel, cfg))
	return nil // unreachable
}

// loadSettings resolves defaults < settings.toml < --config < flags and
// validates the result, so a bad setting is reported before any screen opens.
func loadSettings(cmd *cobra.Command, flagCfg *config.Config) (*config.Config, error) {
	cfg, unknown, err := config.LoadWithPrecedence(config.ProjectFile, flagCfg.ConfigFile, cli.Overrides(cmd, flagCfg))
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	for _, key := range unknown {
		logging.Warn(fmt.Sprintf("Unknown setting ignored: %s", key))
	}

	cli.MergeCLIOnly(cfg, flagCfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// simulate runs the session against a simulated participant on virtual time.
func simulate(ctx context.Context, cfg *config.Config) int {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	participant := &headless.Participant{
		Rand:  rand.New(rand.NewSource(seed)),
		RTMin: config.Seconds(cfg.SimRTMin),
		RTMax: config.Seconds(cfg.SimRTMax),
		// Never quit, and never ask for another training round.
		Avoid: []string{cfg.ButtonQuit, cfg.ButtonInstrRepeat},
	}

	runner := phases.NewRunner(cfg, headless.New(time.Now(), participant))
	if cfg.Verbose {
		runner.EventConsole = os.Stderr
	}
	return runner.Run(ctx)
}

// present runs the session on the terminal screen. Console output is held
// back while the screen is up and printed once it is closed.
func present(ctx context.Context, cancel context.CancelCauseFunc, cfg *config.Config) int {
	var held bytes.Buffer
	logging.SetOutput(&held)
	banner.SetOutput(&held)
	defer func() {
		logging.SetOutput(nil)
		banner.SetOutput(os.Stdout)
		_, _ = io.Copy(os.Stdout, &held)
	}()

	screen := terminal.New(cfg)
	screen.Start(cancel)

	code := phases.NewRunner(cfg, screen).Run(ctx)
	if err := screen.Stop(); err != nil {
		logging.Warn(err.Error())
	}
	return code
}
