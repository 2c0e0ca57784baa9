package logging

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
)

// Level is a parsed verbosity setting. trace is debug with caller
// information attached.
type Level struct {
	Name   string
	Slog   slog.Level
	Caller bool
}

var levels = map[string]Level{
	"trace":   {Name: "trace", Slog: slog.LevelDebug, Caller: true},
	"debug":   {Name: "debug", Slog: slog.LevelDebug},
	"info":    {Name: "info", Slog: slog.LevelInfo},
	"warn":    {Name: "warn", Slog: slog.LevelWarn},
	"warning": {Name: "warn", Slog: slog.LevelWarn},
	"error":   {Name: "error", Slog: slog.LevelError},
}

// ParseLevel accepts trace, debug, info, warn (or warning) and error in any
// case. An empty string means info.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return levels["info"], nil
	}
	lvl, ok := levels[s]
	if !ok {
		return Level{}, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
	return lvl, nil
}

func (l Level) charm() log.Level {
	switch l.Slog {
	case slog.LevelDebug:
		return log.DebugLevel
	case slog.LevelWarn:
		return log.WarnLevel
	case slog.LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
