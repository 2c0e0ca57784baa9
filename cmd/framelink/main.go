package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		code := 1
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) && exitErr.ExitCode() != 0 {
			code = exitErr.ExitCode()
		}
		stop()
		os.Exit(code)
	}
}

// newApp builds the command tree. Exit codes are left to main so the app
// can run inside tests.
func newApp(stdout, stderr io.Writer) *cli.Command {
	logs := &logOutput{}
	return &cli.Command{
		Name:      "framelink",
		Version:   Version,
		Usage:     "Run and inspect embedded component scenarios",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     logFlags(),
		Before:    logs.before,
		After:     logs.after,
		Commands: []*cli.Command{
			versionCmd,
			validateCmd,
			simulateCmd,
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}
