package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/atlanticdynamic/framelink/internal/config"
	"github.com/atlanticdynamic/framelink/internal/logging"
	"github.com/urfave/cli/v3"
)

const (
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
	flagLogOutput = "log-output"
)

func logFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagLogLevel,
			Usage:   "Log level (trace, debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("FRAMELINK_LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    flagLogFormat,
			Usage:   "Log format (text, json)",
			Value:   logging.FormatText,
			Sources: cli.EnvVars("FRAMELINK_LOG_FORMAT"),
		},
		&cli.StringFlag{
			Name:    flagLogOutput,
			Usage:   "Log destination: stdout, stderr, or a file path",
			Value:   "stderr",
			Sources: cli.EnvVars("FRAMELINK_LOG_OUTPUT"),
		},
	}
}

// logOutput owns the slog default installed for one run of the app.
type logOutput struct {
	closer io.Closer
}

type logOutputKey struct{}

// logOutputFrom returns the logOutput installed by the root command.
func logOutputFrom(ctx context.Context) (*logOutput, bool) {
	l, ok := ctx.Value(logOutputKey{}).(*logOutput)
	return l, ok
}

func (l *logOutput) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := l.install(loggingOptions(cmd, config.Logging{})); err != nil {
		return ctx, err
	}
	return context.WithValue(ctx, logOutputKey{}, l), nil
}

func (l *logOutput) after(context.Context, *cli.Command) error {
	return l.close()
}

// install replaces the slog default, releasing the previous output.
func (l *logOutput) install(opts logging.Options) error {
	handler, closer, err := logging.NewHandler(opts)
	if err != nil {
		return cli.Exit(fmt.Errorf("failed to set up logging: %w", err), 1)
	}
	if err := l.close(); err != nil {
		_ = closer.Close()
		return err
	}
	l.closer = closer
	slog.SetDefault(slog.New(handler))
	return nil
}

func (l *logOutput) close() error {
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

// loggingOptions merges flags with a scenario's logging table. Flags set on
// the command line or through the environment win.
func loggingOptions(cmd *cli.Command, fromFile config.Logging) logging.Options {
	pick := func(flag, file string) string {
		if cmd.IsSet(flag) || file == "" {
			return cmd.String(flag)
		}
		return file
	}
	return logging.Options{
		Level:  pick(flagLogLevel, fromFile.Level),
		Format: pick(flagLogFormat, fromFile.Format),
		Output: pick(flagLogOutput, fromFile.Output),
	}
}
