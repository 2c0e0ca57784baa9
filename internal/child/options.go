package child

import (
	"log/slog"
	"time"

	"github.com/atlanticdynamic/framelink/internal/oneshot"
)

// Option represents a functional option for configuring a Child.
type Option func(*Child)

// WithLogHandler sets a custom slog handler for the Child.
func WithLogHandler(handler slog.Handler) Option {
	return func(c *Child) {
		if handler != nil {
			c.logHandler = handler
		}
	}
}

// WithOnEnter runs fn once, after the handshake succeeds.
func WithOnEnter(fn func()) Option {
	return func(c *Child) {
		c.onEnter = oneshot.New(fn)
	}
}

// WithOnExit runs fn once, when Exit is called.
func WithOnExit(fn func()) Option {
	return func(c *Child) {
		c.onExit = oneshot.New(fn)
	}
}

// WithOnClose runs fn once, when the child starts closing.
func WithOnClose(fn func()) Option {
	return func(c *Child) {
		c.onClose = oneshot.New(fn)
	}
}

// WithOnError runs fn once, with the handshake failure.
func WithOnError(fn func(error)) Option {
	return func(c *Child) {
		c.onError = oneshot.Wrap(fn)
	}
}

// WithOnProps runs fn every time props change, with a copy of the props.
func WithOnProps(fn func(Props)) Option {
	return func(c *Child) {
		if fn != nil {
			c.onProps = fn
		}
	}
}

// WithMaxRedirects limits how many relays the handshake follows.
func WithMaxRedirects(n int) Option {
	return func(c *Child) {
		if n >= 0 {
			c.maxRedirects = n
		}
	}
}

// WithRedirectDeferral delays the local navigation fallback of
// RedirectParent.
func WithRedirectDeferral(d time.Duration) Option {
	return func(c *Child) {
		if d >= 0 {
			c.redirectDeferral = d
		}
	}
}
