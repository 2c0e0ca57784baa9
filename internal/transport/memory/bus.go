// Package memory is an in-process message channel. Every context attaches
// to a shared Bus and gets an Endpoint that can send correlated requests,
// post one-way messages, and subscribe to message types scoped to a sender.
//
// Payloads are cloned through structpb on the way in and out, so the two
// sides never share mutable maps and only JSON-shaped values survive the
// trip (numbers arrive as float64).
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/atlanticdynamic/framelink/internal/transport"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/types/known/structpb"
)

// DefaultRequestTimeout bounds a request whose context carries no deadline.
const DefaultRequestTimeout = 5 * time.Second

type Bus struct {
	logger  *slog.Logger
	timeout time.Duration

	mu        sync.RWMutex
	endpoints map[string]*Endpoint
	closed    bool

	// in-flight handler invocations, drained by Close
	deliveries errgroup.Group

	// posted messages queue per source and target pair
	lanesMu sync.Mutex
	lanes   map[laneKey]*lane

	ctx    context.Context
	cancel context.CancelFunc
}

// NewBus creates an empty bus.
func NewBus(opts ...Option) *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bus{
		logger:    slog.Default().WithGroup("memory.Bus"),
		timeout:   DefaultRequestTimeout,
		endpoints: make(map[string]*Endpoint),
		lanes:     make(map[laneKey]*lane),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach registers a context on the bus and returns its endpoint.
func (b *Bus) Attach(self transport.Handle) (*Endpoint, error) {
	if self == nil {
		return nil, fmt.Errorf("%w: nil handle", transport.ErrUnknownContext)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, transport.ErrClosed
	}
	if _, exists := b.endpoints[self.ID()]; exists {
		return nil, fmt.Errorf("%w: %s", transport.ErrDuplicate, self.ID())
	}

	ep := &Endpoint{bus: b, self: self}
	b.endpoints[self.ID()] = ep
	b.logger.Debug("Context attached", "context", self.ID())
	return ep, nil
}

// Detach removes a context. Messages addressed to it fail with
// ErrUnknownContext afterwards.
func (b *Bus) Detach(self transport.Handle) {
	if self == nil {
		return
	}
	b.mu.Lock()
	delete(b.endpoints, self.ID())
	b.mu.Unlock()
	b.logger.Debug("Context detached", "context", self.ID())
}

// Close rejects new traffic, cancels handler contexts for posted messages
// and waits for every in-flight handler to return.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	err := b.deliveries.Wait()
	b.logger.Debug("Bus closed")
	return err
}

func (b *Bus) route(source, target transport.Handle, msgType string) (transport.Handler, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: nil target", transport.ErrUnknownContext)
	}

	b.mu.RLock()
	closed := b.closed
	ep, ok := b.endpoints[target.ID()]
	b.mu.RUnlock()

	if closed {
		return nil, transport.ErrClosed
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", transport.ErrUnknownContext, target.ID())
	}

	h := ep.match(msgType, source)
	if h == nil {
		return nil, fmt.Errorf("%w: %s on %s from %s", transport.ErrNoHandler, msgType, target.ID(), source.ID())
	}
	return h, nil
}

// deliver runs fn on its own goroutine, tracked for Close.
func (b *Bus) deliver(fn func()) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return transport.ErrClosed
	}
	b.deliveries.Go(func() error {
		fn()
		return nil
	})
	return nil
}

type laneKey struct {
	source, target string
}

// lane runs posted messages between two contexts one at a time, in the
// order they were posted.
type lane struct {
	queue   []func()
	running bool
}

// deliverInOrder queues fn behind earlier posts from source to target. A
// lane's drain goroutine is tracked for Close like any other delivery.
func (b *Bus) deliverInOrder(source, target transport.Handle, fn func()) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return transport.ErrClosed
	}

	key := laneKey{source: source.ID(), target: target.ID()}
	b.lanesMu.Lock()
	l, ok := b.lanes[key]
	if !ok {
		l = &lane{}
		b.lanes[key] = l
	}
	l.queue = append(l.queue, fn)
	start := !l.running
	l.running = true
	b.lanesMu.Unlock()

	if start {
		b.deliveries.Go(func() error {
			b.drain(key, l)
			return nil
		})
	}
	return nil
}

func (b *Bus) drain(key laneKey, l *lane) {
	for {
		b.lanesMu.Lock()
		if len(l.queue) == 0 {
			l.running = false
			delete(b.lanes, key)
			b.lanesMu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		b.lanesMu.Unlock()
		fn()
	}
}

func clonePayload(data map[string]any) (map[string]any, error) {
	s, err := structpb.NewStruct(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", transport.ErrPayload, err)
	}
	return s.AsMap(), nil
}
