package memory

import (
	"log/slog"
	"time"
)

// Option represents a functional option for configuring a Bus.
type Option func(*Bus)

// WithLogHandler sets a custom slog handler for the Bus.
func WithLogHandler(handler slog.Handler) Option {
	return func(b *Bus) {
		if handler != nil {
			b.logger = slog.New(handler).WithGroup("memory.Bus")
		}
	}
}

// WithLogger sets a logger for the Bus.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithRequestTimeout overrides DefaultRequestTimeout. Zero disables it.
func WithRequestTimeout(d time.Duration) Option {
	return func(b *Bus) {
		if d >= 0 {
			b.timeout = d
		}
	}
}
