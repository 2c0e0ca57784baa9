// Package mocks provides testify mocks for the collaborators of a child.
package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/atlanticdynamic/framelink/internal/transport"
	"github.com/stretchr/testify/mock"
)

// Messenger mocks Request and Post with testify expectations and keeps a
// real subscription table, so tests can push inbound messages with Deliver.
type Messenger struct {
	mock.Mock

	subMu  sync.Mutex
	subs   []*subscription
	nextID int
}

type subscription struct {
	id      int
	msgType string
	sender  transport.Handle
	handler transport.Handler
}

// NewMessenger creates a new Messenger mock.
func NewMessenger() *Messenger {
	return &Messenger{}
}

func (m *Messenger) Request(
	ctx context.Context,
	target transport.Handle,
	msgType string,
	data map[string]any,
) (map[string]any, error) {
	args := m.Called(ctx, target, msgType, data)
	reply, _ := args.Get(0).(map[string]any)
	return reply, args.Error(1)
}

func (m *Messenger) Post(
	ctx context.Context,
	target transport.Handle,
	msgType string,
	data map[string]any,
) error {
	args := m.Called(ctx, target, msgType, data)
	return args.Error(0)
}

func (m *Messenger) Subscribe(
	msgType string,
	sender transport.Handle,
	h transport.Handler,
) (func(), error) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.nextID++
	id := m.nextID
	m.subs = append(m.subs, &subscription{id: id, msgType: msgType, sender: sender, handler: h})

	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		for i, s := range m.subs {
			if s.id == id {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				return
			}
		}
	}, nil
}

// Deliver invokes the handler subscribed to msgType for source, honoring
// sender scoping the way a real channel does.
func (m *Messenger) Deliver(
	ctx context.Context,
	msgType string,
	source transport.Handle,
	data map[string]any,
) (map[string]any, error) {
	m.subMu.Lock()
	var handler transport.Handler
	for i := len(m.subs) - 1; i >= 0; i-- {
		s := m.subs[i]
		if s.msgType == msgType && (s.sender == nil || transport.SameContext(s.sender, source)) {
			handler = s.handler
			break
		}
	}
	m.subMu.Unlock()

	if handler == nil {
		return nil, fmt.Errorf("%w: %s from %s", transport.ErrNoHandler, msgType, source.ID())
	}
	return handler(ctx, source, data)
}

// Subscriptions counts live subscriptions for msgType.
func (m *Messenger) Subscriptions(msgType string) int {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	n := 0
	for _, s := range m.subs {
		if s.msgType == msgType {
			n++
		}
	}
	return n
}
