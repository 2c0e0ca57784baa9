package child

import (
	"context"
	"errors"
	"fmt"

	"github.com/atlanticdynamic/framelink/internal/finitestate"
	"github.com/atlanticdynamic/framelink/internal/protocol"
	"github.com/atlanticdynamic/framelink/internal/transport"
)

// Init performs the handshake and blocks until it settles. On failure the
// error callback fires and the child moves to errored; the same error is
// returned. Init may only be called once.
func (c *Child) Init(ctx context.Context) error {
	if err := c.fsm.TransitionIfCurrentState(finitestate.StatusCreated, finitestate.StatusEntering); err != nil {
		return fmt.Errorf("[%s] %w: %w", c.component.Tag, ErrAlreadyStarted, err)
	}

	err := c.handshake(ctx)
	if err == nil || errors.Is(err, ErrTerminated) {
		return err
	}

	if stateErr := c.fsm.TransitionIfCurrentState(finitestate.StatusEntering, finitestate.StatusErrored); stateErr != nil {
		// closed while the handshake was in flight; there is nobody left to tell
		c.logger.Debug("Handshake failed after close", "error", err, "state", c.fsm.GetState())
		return err
	}
	c.logger.Error("Handshake failed", "error", err)
	c.onError.Fire(err)
	c.finish()
	return err
}

// handshake sends INIT to the immediate parent and follows relays until a
// reply no longer names a different frame. Round trips are strictly
// sequential.
func (c *Child) handshake(ctx context.Context) error {
	c.mu.Lock()
	candidate := c.parentWindow
	c.mu.Unlock()

	visited := map[string]struct{}{}
	for hops := 0; ; hops++ {
		visited[candidate.ID()] = struct{}{}

		reply, err := c.requestInit(ctx, candidate)
		if err != nil {
			return err
		}

		next, ok := c.resolveRedirect(candidate, reply.ParentID)
		if !ok {
			return c.enter(candidate, reply)
		}

		if _, seen := visited[next.ID()]; seen || hops >= c.maxRedirects {
			return fmt.Errorf("[%s] %w: %s -> %s after %d hops",
				c.component.Tag, ErrRedirectLoop, candidate.ID(), next.ID(), hops+1)
		}

		c.logger.Debug("Following handshake redirect", "from", candidate.ID(), "to", next.ID())
		c.mu.Lock()
		c.parentComponent = next
		c.mu.Unlock()
		candidate = next
	}
}

func (c *Child) requestInit(ctx context.Context, target transport.Handle) (protocol.InitReply, error) {
	c.logger.Debug("Sending init", "target", target.ID())
	data, err := c.messenger.Request(ctx, target, protocol.TypeInit, nil)
	if err != nil {
		return protocol.InitReply{}, fmt.Errorf("[%s] %w: %w", c.component.Tag, ErrHandshakeFailed, err)
	}
	reply, err := protocol.DecodeInitReply(data)
	if err != nil {
		return protocol.InitReply{}, fmt.Errorf("[%s] %w: %w", c.component.Tag, ErrHandshakeFailed, err)
	}
	return reply, nil
}

// resolveRedirect returns the frame a reply points at, when that frame
// exists inside candidate and is not candidate itself.
func (c *Child) resolveRedirect(candidate transport.Handle, parentID string) (transport.Handle, bool) {
	if parentID == "" {
		return nil, false
	}
	next, ok := c.platform.Frame(candidate, parentID)
	if !ok || next == nil {
		c.logger.Debug("Redirect target not found", "from", candidate.ID(), "parentId", parentID)
		return nil, false
	}
	if transport.SameContext(next, candidate) {
		return nil, false
	}
	return next, true
}

// enter binds the final parent, attaches listeners, then notifies: entered
// strictly before the first props callback.
func (c *Child) enter(parent transport.Handle, reply protocol.InitReply) error {
	c.mu.Lock()
	c.parentComponent = parent
	c.bound = true
	c.display = reply.Context
	c.props.Merge(reply.Props)
	c.mu.Unlock()

	if err := c.listen(); err != nil {
		return fmt.Errorf("[%s] %w: %w", c.component.Tag, ErrHandshakeFailed, err)
	}

	if err := c.fsm.TransitionIfCurrentState(finitestate.StatusEntering, finitestate.StatusEntered); err != nil {
		c.detach()
		c.logger.Debug("Closed before the handshake completed", "state", c.fsm.GetState())
		return fmt.Errorf("[%s] %w: %w", c.component.Tag, ErrTerminated, err)
	}

	c.logger.Info("Entered", "parent", parent.ID(), "context", reply.Context)
	c.onEnter.Fire()
	c.onProps(c.Props())
	close(c.ready)
	return nil
}
