// Package hostsim is a scripted parent. A Host attaches a window to a
// memory bus, answers INIT, RESIZE and REDIRECT from any child, records
// CLOSE notifications, and can push PROPS or commands to a child. It is a
// test and simulation double, not a parent protocol implementation.
package hostsim

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/atlanticdynamic/framelink/internal/protocol"
	"github.com/atlanticdynamic/framelink/internal/transport"
	"github.com/atlanticdynamic/framelink/internal/transport/memory"
	"github.com/atlanticdynamic/framelink/internal/window"
	"github.com/robbyt/go-supervisor/supervisor"
)

var _ supervisor.Runnable = (*Host)(nil)

// Event is one message the host received.
type Event struct {
	Type   string
	Source string
	Data   map[string]any
}

// Host is one scripted parent context.
type Host struct {
	window   *window.Window
	bus      *memory.Bus
	endpoint *memory.Endpoint
	logger   *slog.Logger

	reply        protocol.InitReply
	navigate     bool
	resizeFrames bool

	mu          sync.Mutex
	events      []Event
	unsubscribe []func()

	runMu     sync.Mutex
	runCancel context.CancelFunc
}

// New attaches self to bus and starts answering immediately, so children
// may handshake before Run is scheduled.
func New(bus *memory.Bus, self *window.Window, opts ...Option) (*Host, error) {
	if bus == nil || self == nil {
		return nil, fmt.Errorf("%w: bus and window are required", ErrInvalidHost)
	}

	h := &Host{
		window:       self,
		bus:          bus,
		logger:       slog.Default().WithGroup("hostsim.Host"),
		reply:        protocol.InitReply{Context: protocol.ContextIframe},
		navigate:     true,
		resizeFrames: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("window", self.ID())

	if h.reply.Context != "" {
		if _, err := protocol.ParseDisplayContext(string(h.reply.Context)); err != nil {
			return nil, err
		}
	}

	ep, err := bus.Attach(self)
	if err != nil {
		return nil, fmt.Errorf("attach %s: %w", self.ID(), err)
	}
	h.endpoint = ep

	if err := h.listen(); err != nil {
		bus.Detach(self)
		return nil, err
	}
	return h, nil
}

func (h *Host) String() string {
	return "hostsim.Host(" + h.window.ID() + ")"
}

// Window returns the window the host runs in.
func (h *Host) Window() *window.Window {
	return h.window
}

// Run keeps the host attached until ctx is canceled or Stop is called.
func (h *Host) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.runMu.Lock()
	h.runCancel = cancel
	h.runMu.Unlock()

	h.logger.Debug("Host running")
	<-runCtx.Done()

	h.Detach()
	h.logger.Debug("Host stopped", "events", len(h.Events()))
	return nil
}

// Stop ends Run.
func (h *Host) Stop() {
	h.runMu.Lock()
	cancel := h.runCancel
	h.runMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Detach stops answering and removes the host from the bus.
func (h *Host) Detach() {
	h.mu.Lock()
	for _, cancel := range h.unsubscribe {
		cancel()
	}
	h.unsubscribe = nil
	h.mu.Unlock()
	h.bus.Detach(h.window)
}

func (h *Host) listen() error {
	handlers := map[string]transport.Handler{
		protocol.TypeInit:     h.handleInit,
		protocol.TypeClose:    h.handleClose,
		protocol.TypeResize:   h.handleResize,
		protocol.TypeRedirect: h.handleRedirect,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, msgType := range slices.Sorted(maps.Keys(handlers)) {
		cancel, err := h.endpoint.Subscribe(msgType, nil, handlers[msgType])
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", msgType, err)
		}
		h.unsubscribe = append(h.unsubscribe, cancel)
	}
	return nil
}

// PushProps posts a PROPS update to target.
func (h *Host) PushProps(ctx context.Context, target transport.Handle, props map[string]any) error {
	h.logger.Debug("Pushing props", "target", target.ID(), "keys", len(props))
	return h.endpoint.Post(ctx, target, protocol.TypeProps, protocol.PropsUpdate{Props: props}.Encode())
}

// SendClose posts CLOSE to target.
func (h *Host) SendClose(ctx context.Context, target transport.Handle) error {
	h.logger.Debug("Sending close", "target", target.ID())
	return h.endpoint.Post(ctx, target, protocol.TypeClose, nil)
}

// RequestResize asks target to resize its own surface and waits for the
// result.
func (h *Host) RequestResize(ctx context.Context, target transport.Handle, width, height int) error {
	size := protocol.Resize{Width: width, Height: height}
	if err := size.Validate(); err != nil {
		return err
	}
	_, err := h.endpoint.Request(ctx, target, protocol.TypeResize, size.Encode())
	return err
}

// Events returns a copy of everything received so far.
func (h *Host) Events() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.events)
}

// Count returns how many messages of msgType were received.
func (h *Host) Count(msgType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, e := range h.events {
		if e.Type == msgType {
			n++
		}
	}
	return n
}

func (h *Host) record(msgType string, source transport.Handle, data map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, Event{Type: msgType, Source: source.ID(), Data: data})
}

func (h *Host) handleInit(_ context.Context, source transport.Handle, data map[string]any) (map[string]any, error) {
	h.record(protocol.TypeInit, source, data)
	h.logger.Debug("Answering init", "source", source.ID(), "parentId", h.reply.ParentID)
	return h.reply.Encode(), nil
}

func (h *Host) handleClose(_ context.Context, source transport.Handle, data map[string]any) (map[string]any, error) {
	h.record(protocol.TypeClose, source, data)
	h.logger.Info("Child closed", "source", source.ID())
	return nil, nil
}

// handleResize resizes the frame the request came from when it is one of
// this host's frames.
func (h *Host) handleResize(_ context.Context, source transport.Handle, data map[string]any) (map[string]any, error) {
	h.record(protocol.TypeResize, source, data)
	size, err := protocol.DecodeResize(data)
	if err != nil {
		return nil, err
	}

	if !h.resizeFrames {
		return map[string]any{}, nil
	}
	if frame, ok := source.(*window.Window); ok && frame.Parent() == h.window {
		if err := frame.ResizeTo(size.Width, size.Height); err != nil {
			return nil, err
		}
		h.logger.Debug("Frame resized", "frame", frame.ID(), "width", size.Width, "height", size.Height)
	}
	return map[string]any{}, nil
}

func (h *Host) handleRedirect(_ context.Context, source transport.Handle, data map[string]any) (map[string]any, error) {
	h.record(protocol.TypeRedirect, source, data)
	req, err := protocol.DecodeRedirect(data)
	if err != nil {
		return nil, err
	}

	if !h.navigate {
		h.logger.Debug("Declining redirect", "url", req.URL)
		return protocol.RedirectReply{Navigated: false}.Encode(), nil
	}
	h.window.Navigate(req.URL)
	h.logger.Info("Navigated", "url", req.URL)
	return protocol.RedirectReply{Navigated: true}.Encode(), nil
}
