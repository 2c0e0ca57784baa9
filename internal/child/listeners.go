package child

import (
	"context"
	"fmt"

	"github.com/atlanticdynamic/framelink/internal/protocol"
	"github.com/atlanticdynamic/framelink/internal/transport"
)

type listener struct {
	msgType string
	handle  transport.Handler
}

func (c *Child) parentListeners() []listener {
	return []listener{
		{msgType: protocol.TypeProps, handle: c.handleProps},
		{msgType: protocol.TypeClose, handle: c.handleClose},
		{msgType: protocol.TypeResize, handle: c.handleResize},
	}
}

// listen subscribes the parent listeners, scoped to the bound parent.
// Calling it again replaces the previous subscriptions.
func (c *Child) listen() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.bound || c.parentComponent == nil {
		return fmt.Errorf("[%s] %w", c.component.Tag, ErrParentNotBound)
	}

	c.detachLocked()
	for _, l := range c.parentListeners() {
		cancel, err := c.messenger.Subscribe(l.msgType, c.parentComponent, l.handle)
		if err != nil {
			c.detachLocked()
			return fmt.Errorf("subscribe %s: %w", l.msgType, err)
		}
		c.unsubscribe = append(c.unsubscribe, cancel)
	}
	c.logger.Debug("Listening to parent", "parent", c.parentComponent.ID())
	return nil
}

func (c *Child) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detachLocked()
}

func (c *Child) detachLocked() {
	for _, cancel := range c.unsubscribe {
		cancel()
	}
	c.unsubscribe = nil
}

func (c *Child) handleProps(ctx context.Context, _ transport.Handle, data map[string]any) (map[string]any, error) {
	// hold PROPS until the handshake has delivered its own notification
	select {
	case <-c.ready:
	case <-c.done:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	// select picks at random once both channels are closed
	select {
	case <-c.done:
		c.logger.Debug("Ignoring props after close")
		return nil, nil
	default:
	}

	update, err := protocol.DecodePropsUpdate(data)
	if err != nil {
		c.logger.Warn("Ignoring malformed props", "error", err)
		return nil, err
	}

	c.mu.Lock()
	c.props.Merge(update.Props)
	snapshot := c.props.Clone()
	c.mu.Unlock()

	c.logger.Debug("Props updated", "keys", len(update.Props))
	c.onProps(snapshot)
	return nil, nil
}

func (c *Child) handleClose(ctx context.Context, _ transport.Handle, _ map[string]any) (map[string]any, error) {
	c.logger.Debug("Close requested by parent")
	return nil, c.Close(ctx)
}

func (c *Child) handleResize(_ context.Context, _ transport.Handle, data map[string]any) (map[string]any, error) {
	size, err := protocol.DecodeResize(data)
	if err != nil {
		c.logger.Warn("Ignoring malformed resize", "error", err)
		return nil, err
	}
	c.logger.Debug("Resize requested by parent", "width", size.Width, "height", size.Height)
	return nil, c.platform.ResizeTo(size.Width, size.Height)
}
