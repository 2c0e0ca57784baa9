package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atlanticdynamic/framelink/internal/config"
	"github.com/atlanticdynamic/framelink/internal/simulator"
	"github.com/urfave/cli/v3"
)

var simulateCmd = &cli.Command{
	Name:      "simulate",
	Aliases:   []string{"run"},
	Usage:     "Run a scenario against an in-memory window tree",
	ArgsUsage: "[scenario.toml]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "scenario",
			Aliases: []string{"s"},
			Usage:   "Path to the scenario file",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "Exit with an error when any step fails",
		},
		&cli.BoolFlag{
			Name:    "tree",
			Aliases: []string{"t"},
			Usage:   "Print the scenario before running it",
		},
	},
	Action: simulateAction,
}

func simulateAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("scenario")
	if path == "" {
		if cmd.Args().Len() < 1 {
			return cli.Exit("scenario file path required (use the --scenario flag, or provide it as positional argument)", 1)
		}
		path = cmd.Args().Get(0)
	}

	s, err := config.Load(path)
	if err != nil {
		return cli.Exit(err, 1)
	}

	if logs, ok := logOutputFrom(ctx); ok {
		if err := logs.install(loggingOptions(cmd, s.Logging)); err != nil {
			return err
		}
	}

	out := cmd.Root().Writer
	if cmd.Bool("tree") {
		fmt.Fprintln(out, s)
	}

	sim, err := simulator.New(s, simulator.WithLogHandler(slog.Default().Handler()))
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer func() {
		if err := sim.Close(); err != nil {
			slog.Warn("Failed to close simulation", "error", err)
		}
	}()

	report, runErr := sim.Run(ctx)
	fmt.Fprintln(out, report)
	if runErr != nil {
		return cli.Exit(fmt.Errorf("simulation failed: %w", runErr), 1)
	}

	if failed := report.Failed(); cmd.Bool("strict") && len(failed) > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d steps failed", len(failed), len(report.Steps)), 1)
	}
	return nil
}
