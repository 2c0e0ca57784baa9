package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/atlanticdynamic/framelink/internal/transport"
	"github.com/gofrs/uuid/v5"
)

type subscription struct {
	id      uuid.UUID
	msgType string
	sender  transport.Handle
	handler transport.Handler
}

func (s *subscription) accepts(msgType string, source transport.Handle) bool {
	if s.msgType != msgType {
		return false
	}
	return s.sender == nil || transport.SameContext(s.sender, source)
}

type reply struct {
	data map[string]any
	err  error
}

// Endpoint is one context's view of the bus.
type Endpoint struct {
	bus  *Bus
	self transport.Handle

	mu   sync.RWMutex
	subs []*subscription
}

// Self returns the handle this endpoint sends as.
func (e *Endpoint) Self() transport.Handle {
	return e.self
}

// Request delivers a message to target and waits for the handler's reply.
// Without a deadline on ctx the bus default timeout applies.
func (e *Endpoint) Request(
	ctx context.Context,
	target transport.Handle,
	msgType string,
	data map[string]any,
) (map[string]any, error) {
	payload, err := clonePayload(data)
	if err != nil {
		return nil, err
	}

	handler, err := e.bus.route(e.self, target, msgType)
	if err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok && e.bus.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.bus.timeout)
		defer cancel()
	}

	id := uuid.Must(uuid.NewV6())
	logger := e.bus.logger.With("id", id, "type", msgType, "source", e.self.ID(), "target", target.ID())
	logger.Debug("Sending request")

	replies := make(chan reply, 1)
	err = e.bus.deliver(func() {
		out, herr := handler(ctx, e.self, payload)
		if herr != nil {
			replies <- reply{err: &transport.RemoteError{
				Target:  target.ID(),
				Type:    msgType,
				Message: herr.Error(),
			}}
			return
		}
		cloned, cerr := clonePayload(out)
		replies <- reply{data: cloned, err: cerr}
	})
	if err != nil {
		return nil, err
	}

	select {
	case r := <-replies:
		if r.err != nil {
			logger.Debug("Request failed", "error", r.err)
			return nil, r.err
		}
		return r.data, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s to %s", transport.ErrTimeout, msgType, target.ID())
		}
		return nil, ctx.Err()
	}
}

// Post delivers a one-way message. It returns once the message has been
// queued for the target's handler; the handler's result is discarded.
// Posts from one context to another reach the handler in the order they
// were sent.
func (e *Endpoint) Post(
	ctx context.Context,
	target transport.Handle,
	msgType string,
	data map[string]any,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := clonePayload(data)
	if err != nil {
		return err
	}

	handler, err := e.bus.route(e.self, target, msgType)
	if err != nil {
		return err
	}

	source := e.self
	return e.bus.deliverInOrder(source, target, func() {
		if _, herr := handler(e.bus.ctx, source, payload); herr != nil {
			e.bus.logger.Debug("Posted message handler failed",
				"type", msgType, "source", source.ID(), "target", target.ID(), "error", herr)
		}
	})
}

// Subscribe registers h for msgType. A non-nil sender restricts delivery to
// messages from that context; everything else is not routed to h. The most
// recent matching subscription wins. The returned function removes it.
func (e *Endpoint) Subscribe(
	msgType string,
	sender transport.Handle,
	h transport.Handler,
) (func(), error) {
	if h == nil {
		return nil, errors.New("handler cannot be nil")
	}

	sub := &subscription{
		id:      uuid.Must(uuid.NewV4()),
		msgType: msgType,
		sender:  sender,
		handler: h,
	}

	e.mu.Lock()
	e.subs = append(e.subs, sub)
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.subs = slices.DeleteFunc(e.subs, func(s *subscription) bool {
				return s.id == sub.id
			})
		})
	}, nil
}

func (e *Endpoint) match(msgType string, source transport.Handle) transport.Handler {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for i := len(e.subs) - 1; i >= 0; i-- {
		if e.subs[i].accepts(msgType, source) {
			return e.subs[i].handler
		}
	}
	return nil
}
