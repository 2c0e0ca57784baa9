package child

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atlanticdynamic/framelink/internal/child/mocks"
	"github.com/atlanticdynamic/framelink/internal/finitestate"
	"github.com/atlanticdynamic/framelink/internal/protocol"
	"github.com/atlanticdynamic/framelink/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// enteredChild returns a child that completed a handshake with parent.
func enteredChild(
	t *testing.T,
	parent transport.Handle,
	display protocol.DisplayContext,
	opts ...Option,
) (*Child, *mocks.Platform, *mocks.Messenger) {
	t.Helper()
	m := mocks.NewMessenger()
	expectInit(m, parent, map[string]any{"context": string(display)})
	p := mocks.NewPlatform(parent)
	c := newTestChild(t, p, m, opts...)
	require.NoError(t, c.Init(context.Background()))
	return c, p, m
}

func TestListenRequiresBoundParent(t *testing.T) {
	t.Parallel()

	c := newTestChild(t, mocks.NewPlatform(mocks.Handle("parent")), mocks.NewMessenger())
	err := c.listen()
	require.ErrorIs(t, err, ErrParentNotBound)
}

func TestListenReplacesSubscriptions(t *testing.T) {
	t.Parallel()

	c, _, m := enteredChild(t, mocks.Handle("parent"), protocol.ContextIframe)
	for _, msgType := range []string{protocol.TypeProps, protocol.TypeClose, protocol.TypeResize} {
		assert.Equal(t, 1, m.Subscriptions(msgType), msgType)
	}

	require.NoError(t, c.listen())
	assert.Equal(t, 1, m.Subscriptions(protocol.TypeProps))
}

func TestPropsListener(t *testing.T) {
	t.Parallel()

	parent := mocks.Handle("parent")

	t.Run("merges and notifies", func(t *testing.T) {
		rec := &recorder{}
		c, _, m := enteredChild(t, parent, protocol.ContextPopup, rec.options()...)

		for _, update := range []map[string]any{{"a": 1}, {"a": 2, "b": 3}} {
			_, err := m.Deliver(context.Background(), protocol.TypeProps, parent, map[string]any{"props": update})
			require.NoError(t, err)
		}

		assert.Equal(t, Props{"a": 2, "b": 3}, c.Props())
		require.Len(t, rec.props, 3)
		assert.Equal(t, Props{}, rec.props[0])
		assert.Equal(t, Props{"a": 1}, rec.props[1])
		assert.Equal(t, Props{"a": 2, "b": 3}, rec.props[2])
	})

	t.Run("other senders are ignored", func(t *testing.T) {
		rec := &recorder{}
		_, _, m := enteredChild(t, parent, protocol.ContextPopup, rec.options()...)

		_, err := m.Deliver(context.Background(), protocol.TypeProps, mocks.Handle("stranger"),
			map[string]any{"props": map[string]any{"a": 1}})
		assert.ErrorIs(t, err, transport.ErrNoHandler)
		assert.Equal(t, 1, rec.count("props"))
	})

	t.Run("malformed payload", func(t *testing.T) {
		rec := &recorder{}
		c, _, m := enteredChild(t, parent, protocol.ContextPopup, rec.options()...)

		_, err := m.Deliver(context.Background(), protocol.TypeProps, parent, map[string]any{"props": "nope"})
		assert.ErrorIs(t, err, protocol.ErrInvalidPayload)
		assert.Equal(t, 1, rec.count("props"))
		assert.Empty(t, c.Props())
	})

	t.Run("held until the handshake notifies", func(t *testing.T) {
		m := mocks.NewMessenger()
		c := newTestChild(t, mocks.NewPlatform(parent), m)
		c.mu.Lock()
		c.bound = true
		c.mu.Unlock()
		require.NoError(t, c.listen())

		delivered := make(chan error, 1)
		go func() {
			_, err := m.Deliver(context.Background(), protocol.TypeProps, parent,
				map[string]any{"props": map[string]any{"a": 1}})
			delivered <- err
		}()

		select {
		case <-delivered:
			t.Fatal("props delivered before the handshake finished")
		case <-time.After(20 * time.Millisecond):
		}

		close(c.ready)
		select {
		case err := <-delivered:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("props were never delivered")
		}
		assert.Equal(t, Props{"a": 1}, c.Props())
	})

	t.Run("dropped once done", func(t *testing.T) {
		m := mocks.NewMessenger()
		c := newTestChild(t, mocks.NewPlatform(parent), m)
		c.finish()

		_, err := c.handleProps(context.Background(), parent, map[string]any{"props": map[string]any{"a": 1}})
		require.NoError(t, err)
		assert.Empty(t, c.Props())
	})

	t.Run("dropped after close even once ready", func(t *testing.T) {
		rec := &recorder{}
		c, _, _ := enteredChild(t, parent, protocol.ContextPopup, rec.options()...)
		c.finish()

		for range 50 {
			_, err := c.handleProps(context.Background(), parent, map[string]any{"props": map[string]any{"a": 1}})
			require.NoError(t, err)
		}
		assert.Empty(t, c.Props())
		assert.Equal(t, 1, rec.count("props"))
	})

	t.Run("canceled while waiting", func(t *testing.T) {
		c := newTestChild(t, mocks.NewPlatform(parent), mocks.NewMessenger())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.handleProps(ctx, parent, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestCloseListener(t *testing.T) {
	t.Parallel()

	parent := mocks.Handle("parent")
	rec := &recorder{}
	c, _, m := enteredChild(t, parent, protocol.ContextIframe, rec.options()...)
	m.On("Post", mock.Anything, parent, protocol.TypeClose, mock.Anything).Return(nil).Once()

	_, err := m.Deliver(context.Background(), protocol.TypeClose, parent, nil)
	require.NoError(t, err)

	assert.Equal(t, finitestate.StatusClosed, c.GetState())
	assert.Equal(t, 1, rec.count("close"))
	m.AssertExpectations(t)

	// listeners are gone after close
	_, err = m.Deliver(context.Background(), protocol.TypeClose, parent, nil)
	assert.ErrorIs(t, err, transport.ErrNoHandler)
}

func TestResizeListener(t *testing.T) {
	t.Parallel()

	parent := mocks.Handle("parent")

	t.Run("resizes the own surface", func(t *testing.T) {
		_, p, m := enteredChild(t, parent, protocol.ContextPopup)
		p.On("ResizeTo", 640, 480).Return(nil).Once()

		_, err := m.Deliver(context.Background(), protocol.TypeResize, parent,
			map[string]any{"width": 640, "height": 480})
		require.NoError(t, err)
		p.AssertExpectations(t)
	})

	t.Run("platform failure is the reply", func(t *testing.T) {
		_, p, m := enteredChild(t, parent, protocol.ContextPopup)
		boom := errors.New("locked")
		p.On("ResizeTo", 10, 10).Return(boom).Once()

		_, err := m.Deliver(context.Background(), protocol.TypeResize, parent,
			map[string]any{"width": 10.0, "height": 10.0})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("malformed size", func(t *testing.T) {
		_, p, m := enteredChild(t, parent, protocol.ContextPopup)

		_, err := m.Deliver(context.Background(), protocol.TypeResize, parent,
			map[string]any{"width": "wide"})
		assert.ErrorIs(t, err, protocol.ErrInvalidPayload)
		p.AssertNotCalled(t, "ResizeTo", mock.Anything, mock.Anything)
	})
}
