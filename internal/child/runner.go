package child

import (
	"context"
	"errors"
	"log/slog"

	"github.com/atlanticdynamic/framelink/internal/finitestate"
	"github.com/robbyt/go-loglater/storage"
	"github.com/robbyt/go-supervisor/supervisor"
)

// Interface guard: ensure Child implements required interfaces
var (
	_ supervisor.Runnable  = (*Child)(nil)
	_ supervisor.Stateable = (*Child)(nil)
)

// Run performs the handshake and then serves parent messages until the
// child closes, errors, or ctx is canceled. A failed handshake has already
// been reported through the error callback and is not returned.
func (c *Child) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.runMu.Lock()
	c.runCancel = cancel
	c.runMu.Unlock()

	if err := c.Init(runCtx); err != nil {
		switch {
		case errors.Is(err, ErrHandshakeFailed), errors.Is(err, ErrRedirectLoop), errors.Is(err, ErrTerminated):
			return nil
		default:
			return err
		}
	}

	select {
	case <-runCtx.Done():
		c.logger.Debug("Run context canceled", "state", c.fsm.GetState())
	case <-c.done:
	}

	c.detach()
	return nil
}

// Stop cancels a running Run.
func (c *Child) Stop() {
	c.runMu.Lock()
	cancel := c.runCancel
	c.runMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// IsRunning reports whether the handshake completed and the child is live.
func (c *Child) IsRunning() bool {
	return c.fsm.GetState() == finitestate.StatusEntered
}

// GetState returns the lifecycle state.
func (c *Child) GetState() string {
	return c.fsm.GetState()
}

// GetStateChan emits the lifecycle state whenever it changes.
func (c *Child) GetStateChan(ctx context.Context) <-chan string {
	return c.fsm.GetStateChan(ctx)
}

// History returns the diagnostics logged by this child so far.
func (c *Child) History() []storage.Record {
	return c.history.GetLogs()
}

// ReplayLogs writes the child's diagnostics to handler.
func (c *Child) ReplayLogs(handler slog.Handler) error {
	return c.history.PlayLogs(handler)
}
