package child

import (
	"context"
	"fmt"
	"time"

	"github.com/atlanticdynamic/framelink/internal/finitestate"
	"github.com/atlanticdynamic/framelink/internal/protocol"
	"github.com/atlanticdynamic/framelink/internal/transport"
)

// Close fires the close callback and tells the parent. The returned error
// only reports whether the CLOSE notification could be dispatched. Closing
// an already closing or closed child does nothing.
func (c *Child) Close(ctx context.Context) error {
	if err := c.fsm.Transition(finitestate.StatusClosing); err != nil {
		state := c.fsm.GetState()
		if finitestate.IsClosing(state) {
			return nil
		}
		return fmt.Errorf("[%s] %w: %s", c.component.Tag, ErrTerminated, state)
	}

	c.onClose.Fire()

	target := c.Parent()
	c.logger.Info("Closing", "parent", target.ID())
	postErr := c.messenger.Post(ctx, target, protocol.TypeClose, nil)

	c.detach()
	if err := c.fsm.Transition(finitestate.StatusClosed); err != nil {
		c.logger.Error("Failed to transition to closed state", "error", err)
	}
	c.finish()

	if postErr != nil {
		c.logger.Warn("Close notification not delivered", "error", postErr)
		return fmt.Errorf("[%s] close notification: %w", c.component.Tag, postErr)
	}
	return nil
}

// Exit fires the exit callback. Nothing in the child calls it; the host
// calls it when it tears the environment down.
func (c *Child) Exit() {
	if c.onExit.Fire() {
		c.logger.Debug("Exited")
	}
}

// Focus gives the child's own surface input focus.
func (c *Child) Focus() {
	c.platform.Focus()
}

// Resize changes the child's size. A popup resizes itself; an iframe
// cannot, so it asks the parent with a RESIZE request and waits for the
// acknowledgement.
func (c *Child) Resize(ctx context.Context, height, width int) error {
	size := protocol.Resize{Width: width, Height: height}
	if err := size.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	display := c.display
	target := c.parentComponent
	c.mu.Unlock()

	switch display {
	case protocol.ContextPopup:
		c.logger.Debug("Resizing popup", "width", width, "height", height)
		return c.platform.ResizeTo(width, height)
	case protocol.ContextIframe:
		c.logger.Debug("Asking parent to resize", "width", width, "height", height)
		if _, err := c.messenger.Request(ctx, target, protocol.TypeResize, size.Encode()); err != nil {
			return fmt.Errorf("[%s] resize: %w", c.component.Tag, err)
		}
		return nil
	default:
		return fmt.Errorf("[%s] %w", c.component.Tag, ErrNotEntered)
	}
}

// RedirectParent asks the parent to navigate to url. If the parent answers
// without navigating, or the request fails, the child navigates its opener
// (or else its enclosing context) itself after the redirect deferral. Both
// outcomes are recovered here, so only an invalid url is returned.
func (c *Child) RedirectParent(ctx context.Context, url string) error {
	req := protocol.Redirect{URL: url}
	if err := req.Validate(); err != nil {
		return err
	}

	reply, err := c.messenger.Request(ctx, c.Parent(), protocol.TypeRedirect, req.Encode())
	if err != nil {
		c.logger.Warn("Parent did not redirect due to error", "url", url, "error", err)
		c.scheduleRedirect(url)
		return nil
	}

	if protocol.DecodeRedirectReply(reply).Navigated {
		c.logger.Debug("Parent redirected", "url", url)
		return nil
	}

	c.logger.Warn("Parent did not redirect", "url", url)
	c.scheduleRedirect(url)
	return nil
}

func (c *Child) scheduleRedirect(url string) {
	time.AfterFunc(c.redirectDeferral, func() {
		c.redirectLocally(url)
	})
}

func (c *Child) redirectLocally(url string) {
	var target transport.Handle
	if opener, ok := c.platform.Opener(); ok {
		target = opener
	} else if parent, ok := c.platform.Parent(); ok {
		target = parent
	} else {
		c.logger.Debug("No window to redirect", "url", url)
		return
	}

	if err := c.platform.Navigate(target, url); err != nil {
		c.logger.Warn("Local redirect failed", "target", target.ID(), "url", url, "error", err)
		return
	}
	c.logger.Info("Redirected locally", "target", target.ID(), "url", url)
}
