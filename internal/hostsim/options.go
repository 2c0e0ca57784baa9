package hostsim

import (
	"log/slog"
	"maps"

	"github.com/atlanticdynamic/framelink/internal/protocol"
)

// Option represents a functional option for configuring a Host.
type Option func(*Host)

// WithLogHandler sets a custom slog handler for the Host.
func WithLogHandler(handler slog.Handler) Option {
	return func(h *Host) {
		if handler != nil {
			h.logger = slog.New(handler).WithGroup("hostsim.Host")
		}
	}
}

// WithLogger sets a logger for the Host.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithDisplayContext sets the context the host reports in its INIT reply.
func WithDisplayContext(display protocol.DisplayContext) Option {
	return func(h *Host) {
		h.reply.Context = display
	}
}

// WithInitialProps sets the props sent with the INIT reply.
func WithInitialProps(props map[string]any) Option {
	return func(h *Host) {
		h.reply.Props = maps.Clone(props)
	}
}

// WithRelay makes the host answer INIT by naming one of its frames as the
// real endpoint for the child.
func WithRelay(frame string) Option {
	return func(h *Host) {
		h.reply.ParentID = frame
	}
}

// WithNavigate controls whether REDIRECT requests are honored. Hosts
// navigate by default.
func WithNavigate(navigate bool) Option {
	return func(h *Host) {
		h.navigate = navigate
	}
}

// WithFrameResize controls whether RESIZE requests from frames resize them.
func WithFrameResize(resize bool) Option {
	return func(h *Host) {
		h.resizeFrames = resize
	}
}
