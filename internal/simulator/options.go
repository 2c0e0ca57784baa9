package simulator

import (
	"log/slog"
)

// Option represents a functional option for configuring a Simulation.
type Option func(*Simulation)

// WithLogHandler sets the slog handler shared by every part of the
// simulation.
func WithLogHandler(handler slog.Handler) Option {
	return func(s *Simulation) {
		if handler != nil {
			s.logHandler = handler
		}
	}
}
