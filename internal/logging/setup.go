// Package logging builds the slog handlers used across framelink: a
// charmbracelet/log text handler for terminals and the standard JSON
// handler for machines.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options selects how and where logs are written.
type Options struct {
	Level  string
	Format string
	// Output is stdout, stderr, or a file path (optionally file://).
	Output string
}

// NewHandler opens the output and builds a handler for it. The returned
// closer releases the output; it is a no-op for stdout and stderr.
func NewHandler(opts Options) (slog.Handler, io.Closer, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	out, err := OpenOutput(opts.Output)
	if err != nil {
		return nil, nil, err
	}

	switch strings.ToLower(opts.Format) {
	case "", FormatText:
		return TextHandler(lvl, out), out, nil
	case FormatJSON:
		return JSONHandler(lvl, out), out, nil
	default:
		_ = out.Close()
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}

// TextHandler writes human readable lines. Timestamps appear from debug
// level down.
func TextHandler(lvl Level, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stderr
	}
	return log.NewWithOptions(writer, log.Options{
		ReportTimestamp: lvl.Slog <= slog.LevelDebug,
		ReportCaller:    lvl.Caller,
		Level:           lvl.charm(),
	})
}

// JSONHandler writes one JSON object per record.
func JSONHandler(lvl Level, writer io.Writer) slog.Handler {
	if writer == nil {
		writer = os.Stdout
	}
	return slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level:     lvl.Slog,
		AddSource: lvl.Caller,
	})
}

