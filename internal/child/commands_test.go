package child

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/atlanticdynamic/framelink/internal/child/mocks"
	"github.com/atlanticdynamic/framelink/internal/finitestate"
	"github.com/atlanticdynamic/framelink/internal/protocol"
	"github.com/atlanticdynamic/framelink/internal/testutil"
	"github.com/atlanticdynamic/framelink/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestClose(t *testing.T) {
	t.Parallel()

	parent := mocks.Handle("parent")

	t.Run("twice sends one close", func(t *testing.T) {
		rec := &recorder{}
		c, _, m := enteredChild(t, parent, protocol.ContextIframe, rec.options()...)
		m.On("Post", mock.Anything, parent, protocol.TypeClose, mock.Anything).Return(nil).Once()

		require.NoError(t, c.Close(context.Background()))
		require.NoError(t, c.Close(context.Background()))

		m.AssertNumberOfCalls(t, "Post", 1)
		assert.Equal(t, 1, rec.count("close"))
		assert.Equal(t, finitestate.StatusClosed, c.GetState())
		assert.False(t, c.IsRunning())
		for _, msgType := range []string{protocol.TypeProps, protocol.TypeClose, protocol.TypeResize} {
			assert.Zero(t, m.Subscriptions(msgType), msgType)
		}
	})

	t.Run("targets the resolved parent", func(t *testing.T) {
		relay := mocks.Handle("relay")
		m := mocks.NewMessenger()
		expectInit(m, parent, map[string]any{"parentId": "relay", "context": "popup"})
		expectInit(m, relay, map[string]any{"context": "iframe"})
		p := mocks.NewPlatform(parent)
		p.On("Frame", parent, "relay").Return(relay, true)
		m.On("Post", mock.Anything, relay, protocol.TypeClose, mock.Anything).Return(nil).Once()

		c := newTestChild(t, p, m)
		require.NoError(t, c.Init(context.Background()))
		require.NoError(t, c.Close(context.Background()))
		m.AssertExpectations(t)
	})

	t.Run("before the handshake", func(t *testing.T) {
		rec := &recorder{}
		m := mocks.NewMessenger()
		m.On("Post", mock.Anything, parent, protocol.TypeClose, mock.Anything).Return(nil).Once()
		c := newTestChild(t, mocks.NewPlatform(parent), m, rec.options()...)

		require.NoError(t, c.Close(context.Background()))
		assert.Equal(t, 1, rec.count("close"))
		assert.Equal(t, finitestate.StatusClosed, c.GetState())

		// the handshake can not start any more
		assert.ErrorIs(t, c.Init(context.Background()), ErrAlreadyStarted)
		assert.Zero(t, rec.count("enter"))
	})

	t.Run("notification failure still closes", func(t *testing.T) {
		boom := errors.New("gone")
		rec := &recorder{}
		c, _, m := enteredChild(t, parent, protocol.ContextIframe, rec.options()...)
		m.On("Post", mock.Anything, parent, protocol.TypeClose, mock.Anything).Return(boom).Once()

		err := c.Close(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, rec.count("close"))
		assert.Equal(t, finitestate.StatusClosed, c.GetState())
		<-c.Done()
	})

	t.Run("after a failed handshake", func(t *testing.T) {
		m := mocks.NewMessenger()
		m.On("Request", mock.Anything, parent, protocol.TypeInit, mock.Anything).
			Return(nil, transport.ErrTimeout).Once()
		rec := &recorder{}
		c := newTestChild(t, mocks.NewPlatform(parent), m, rec.options()...)
		require.Error(t, c.Init(context.Background()))

		assert.ErrorIs(t, c.Close(context.Background()), ErrTerminated)
		assert.Zero(t, rec.count("close"))
		m.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestExit(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	c := newTestChild(t, mocks.NewPlatform(mocks.Handle("parent")), mocks.NewMessenger(), rec.options()...)
	c.Exit()
	c.Exit()
	assert.Equal(t, []string{"exit"}, rec.snapshot())
}

func TestFocus(t *testing.T) {
	t.Parallel()

	p := mocks.NewPlatform(mocks.Handle("parent"))
	p.On("Focus").Return().Once()
	c := newTestChild(t, p, mocks.NewMessenger())
	c.Focus()
	p.AssertExpectations(t)
}

func TestResize(t *testing.T) {
	t.Parallel()

	parent := mocks.Handle("parent")

	t.Run("popup resizes itself", func(t *testing.T) {
		c, p, m := enteredChild(t, parent, protocol.ContextPopup)
		p.On("ResizeTo", 300, 200).Return(nil).Once()

		require.NoError(t, c.Resize(context.Background(), 200, 300))
		p.AssertExpectations(t)
		m.AssertNotCalled(t, "Request", mock.Anything, mock.Anything, protocol.TypeResize, mock.Anything)
	})

	t.Run("iframe asks the parent", func(t *testing.T) {
		c, p, m := enteredChild(t, parent, protocol.ContextIframe)
		m.On("Request", mock.Anything, parent, protocol.TypeResize, map[string]any{"width": 300, "height": 200}).
			Return(map[string]any{}, nil).Once()

		require.NoError(t, c.Resize(context.Background(), 200, 300))
		m.AssertExpectations(t)
		p.AssertNotCalled(t, "ResizeTo", mock.Anything, mock.Anything)
	})

	t.Run("iframe request failure", func(t *testing.T) {
		c, _, m := enteredChild(t, parent, protocol.ContextIframe)
		m.On("Request", mock.Anything, parent, protocol.TypeResize, mock.Anything).
			Return(nil, transport.ErrTimeout).Once()

		assert.ErrorIs(t, c.Resize(context.Background(), 1, 1), transport.ErrTimeout)
	})

	t.Run("before the handshake", func(t *testing.T) {
		c := newTestChild(t, mocks.NewPlatform(parent), mocks.NewMessenger())
		assert.ErrorIs(t, c.Resize(context.Background(), 1, 1), ErrNotEntered)
	})

	t.Run("negative size", func(t *testing.T) {
		c, p, _ := enteredChild(t, parent, protocol.ContextPopup)
		assert.ErrorIs(t, c.Resize(context.Background(), -1, 10), protocol.ErrInvalidPayload)
		p.AssertNotCalled(t, "ResizeTo", mock.Anything, mock.Anything)
	})
}

func TestRedirectParent(t *testing.T) {
	t.Parallel()

	parent := mocks.Handle("parent")
	const url = "https://example.com/done"

	t.Run("parent navigates", func(t *testing.T) {
		c, p, m := enteredChild(t, parent, protocol.ContextIframe)
		m.On("Request", mock.Anything, parent, protocol.TypeRedirect, map[string]any{"url": url}).
			Return(map[string]any{"navigated": true}, nil).Once()

		require.NoError(t, c.RedirectParent(context.Background(), url))
		time.Sleep(20 * time.Millisecond)
		p.AssertNotCalled(t, "Navigate", mock.Anything, mock.Anything)
	})

	t.Run("parent never replies", func(t *testing.T) {
		c, p, m := enteredChild(t, parent, protocol.ContextIframe)
		m.On("Request", mock.Anything, parent, protocol.TypeRedirect, mock.Anything).
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return(nil, transport.ErrTimeout).Once()
		p.On("Opener").Return(nil, false)
		navigated := expectNavigate(p, parent, url, nil)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		require.NoError(t, c.RedirectParent(ctx, url))

		waitForNavigation(t, navigated)
		time.Sleep(30 * time.Millisecond)
		p.AssertNumberOfCalls(t, "Navigate", 1)
	})

	t.Run("declined reply prefers the opener", func(t *testing.T) {
		opener := mocks.Handle("opener")
		handler, logs := testutil.NewLogCapture()
		c, p, m := enteredChild(t, parent, protocol.ContextPopup, WithLogHandler(handler))
		m.On("Request", mock.Anything, parent, protocol.TypeRedirect, mock.Anything).
			Return(map[string]any{"navigated": false}, nil).Once()
		p.On("Opener").Return(opener, true)
		navigated := expectNavigate(p, opener, url, nil)

		require.NoError(t, c.RedirectParent(context.Background(), url))
		waitForNavigation(t, navigated)
		p.AssertNotCalled(t, "Navigate", parent, url)

		out := logs.String()
		assert.Contains(t, out, `level=WARN msg="Parent did not redirect"`)
		assert.NotContains(t, out, "due to error")
	})

	t.Run("fallback waits for the deferral", func(t *testing.T) {
		c, p, m := enteredChild(t, parent, protocol.ContextIframe, WithRedirectDeferral(50*time.Millisecond))
		m.On("Request", mock.Anything, parent, protocol.TypeRedirect, mock.Anything).
			Return(map[string]any{}, nil).Once()
		p.On("Opener").Return(nil, false)
		navigated := expectNavigate(p, parent, url, nil)

		require.NoError(t, c.RedirectParent(context.Background(), url))
		select {
		case <-navigated:
			t.Fatal("navigated before the deferral elapsed")
		default:
		}
		waitForNavigation(t, navigated)
	})

	t.Run("navigation failure is swallowed", func(t *testing.T) {
		handler, logs := testutil.NewLogCapture()
		c, p, m := enteredChild(t, parent, protocol.ContextIframe, WithLogHandler(handler))
		m.On("Request", mock.Anything, parent, protocol.TypeRedirect, mock.Anything).
			Return(nil, errors.New("denied")).Once()
		p.On("Opener").Return(nil, false)
		navigated := expectNavigate(p, parent, url, errors.New("cross origin"))

		require.NoError(t, c.RedirectParent(context.Background(), url))
		waitForNavigation(t, navigated)

		out := logs.String()
		assert.Contains(t, out, `msg="Parent did not redirect due to error"`)
		assert.Contains(t, out, "error=denied")
		assert.Eventually(t, func() bool {
			return strings.Contains(logs.String(), `msg="Local redirect failed"`)
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("empty url", func(t *testing.T) {
		c, _, m := enteredChild(t, parent, protocol.ContextIframe)
		assert.ErrorIs(t, c.RedirectParent(context.Background(), " "), protocol.ErrInvalidPayload)
		m.AssertNotCalled(t, "Request", mock.Anything, mock.Anything, protocol.TypeRedirect, mock.Anything)
	})
}

func TestRedirectLocallyWithoutWindows(t *testing.T) {
	t.Parallel()

	p := &mocks.Platform{}
	p.On("Parent").Return(mocks.Handle("parent"), true).Once()
	c := newTestChild(t, p, mocks.NewMessenger())

	p.On("Opener").Return(nil, false)
	p.On("Parent").Return(nil, false)
	c.redirectLocally("https://example.com")
	p.AssertNotCalled(t, "Navigate", mock.Anything, mock.Anything)
}

func expectNavigate(p *mocks.Platform, target transport.Handle, url string, err error) <-chan struct{} {
	navigated := make(chan struct{}, 4)
	p.On("Navigate", target, url).Return(err).Run(func(mock.Arguments) {
		navigated <- struct{}{}
	})
	return navigated
}

func waitForNavigation(t *testing.T, navigated <-chan struct{}) {
	t.Helper()
	select {
	case <-navigated:
	case <-time.After(time.Second):
		t.Fatal("no local navigation")
	}
}
