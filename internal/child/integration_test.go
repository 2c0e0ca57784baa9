package child

import (
	"context"
	"testing"
	"time"

	"github.com/atlanticdynamic/framelink/internal/finitestate"
	"github.com/atlanticdynamic/framelink/internal/hostsim"
	"github.com/atlanticdynamic/framelink/internal/protocol"
	"github.com/atlanticdynamic/framelink/internal/testutil"
	"github.com/atlanticdynamic/framelink/internal/transport"
	"github.com/atlanticdynamic/framelink/internal/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverBusIframe(t *testing.T) {
	t.Parallel()

	bus := testutil.NewBus(t)
	top := window.New("top", window.WithLocation("https://shop.example"))
	frame := window.New("frame-1", window.WithName("checkout"), window.WithSize(100, 50))
	require.NoError(t, top.AddFrame(frame))

	host, err := hostsim.New(bus, top,
		hostsim.WithLogHandler(testutil.DiscardHandler()),
		hostsim.WithDisplayContext(protocol.ContextIframe),
		hostsim.WithInitialProps(map[string]any{"x": 1}),
	)
	require.NoError(t, err)

	ep, err := bus.Attach(frame)
	require.NoError(t, err)

	rec := &recorder{}
	c := newTestChild(t, window.NewPlatform(frame), ep, rec.options()...)

	errCh := runChild(t, context.Background(), c)
	require.Eventually(t, c.IsRunning, time.Second, 5*time.Millisecond)

	assert.Equal(t, protocol.ContextIframe, c.DisplayContext())
	assert.Equal(t, Props{"x": 1.0}, c.Props())
	assert.Equal(t, []string{"enter", "props"}, rec.snapshot())

	require.NoError(t, host.PushProps(context.Background(), frame, map[string]any{"y": 2}))
	require.Eventually(t, func() bool { return rec.count("props") == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, Props{"x": 1.0, "y": 2.0}, c.Props())

	// an iframe asks the host, which resizes the frame
	require.NoError(t, c.Resize(context.Background(), 240, 320))
	width, height := frame.Size()
	assert.Equal(t, 320, width)
	assert.Equal(t, 240, height)
	assert.Equal(t, 1, host.Count(protocol.TypeResize))

	require.NoError(t, c.RedirectParent(context.Background(), "https://shop.example/thanks"))
	assert.Equal(t, "https://shop.example/thanks", top.Location())

	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, waitRun(t, errCh))

	require.Eventually(t, func() bool { return host.Count(protocol.TypeClose) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, host.Count(protocol.TypeInit))
	assert.Equal(t, finitestate.StatusClosed, c.GetState())
	assert.Equal(t, 1, rec.count("close"))
}

func TestOverBusPropsOrder(t *testing.T) {
	t.Parallel()

	bus := testutil.NewBus(t)
	top := window.New("top")
	frame := window.New("frame-1", window.WithName("widget"))
	require.NoError(t, top.AddFrame(frame))

	host, err := hostsim.New(bus, top,
		hostsim.WithLogHandler(testutil.DiscardHandler()),
		hostsim.WithDisplayContext(protocol.ContextIframe),
	)
	require.NoError(t, err)

	ep, err := bus.Attach(frame)
	require.NoError(t, err)

	rec := &recorder{}
	c := newTestChild(t, window.NewPlatform(frame), ep, rec.options()...)
	errCh := runChild(t, context.Background(), c)
	require.Eventually(t, c.IsRunning, time.Second, 5*time.Millisecond)

	const updates = 20
	for i := 1; i <= updates; i++ {
		require.NoError(t, host.PushProps(context.Background(), frame, map[string]any{"a": i}))
	}
	require.Eventually(t, func() bool { return rec.count("props") == updates+1 }, 2*time.Second, 5*time.Millisecond)

	// later updates overwrite earlier ones, in the order they were sent
	assert.Equal(t, Props{"a": float64(updates)}, c.Props())
	rec.mu.Lock()
	for i, p := range rec.props[1:] {
		assert.Equal(t, float64(i+1), p["a"])
	}
	rec.mu.Unlock()

	require.NoError(t, c.Close(context.Background()))
	require.NoError(t, waitRun(t, errCh))
}

func TestOverBusPopup(t *testing.T) {
	t.Parallel()

	bus := testutil.NewBus(t)
	opener := window.New("opener")
	popup := window.New("popup", window.WithSize(400, 300))
	opener.Open(popup)

	host, err := hostsim.New(bus, opener,
		hostsim.WithLogHandler(testutil.DiscardHandler()),
		hostsim.WithDisplayContext(protocol.ContextPopup),
		hostsim.WithNavigate(false),
	)
	require.NoError(t, err)

	ep, err := bus.Attach(popup)
	require.NoError(t, err)
	c := newTestChild(t, window.NewPlatform(popup), ep)
	require.NoError(t, c.Init(context.Background()))
	assert.Equal(t, "opener", c.Parent().ID())

	// a popup resizes itself without a message
	require.NoError(t, c.Resize(context.Background(), 200, 500))
	width, height := popup.Size()
	assert.Equal(t, 500, width)
	assert.Equal(t, 200, height)
	assert.Zero(t, host.Count(protocol.TypeResize))

	// the host declines, so the child navigates its opener itself
	require.NoError(t, c.RedirectParent(context.Background(), "https://done.example"))
	require.Eventually(t, func() bool {
		return opener.Location() == "https://done.example"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"https://done.example"}, opener.Navigations())

	// the host can resize the popup through the child's listener
	require.NoError(t, host.RequestResize(context.Background(), popup, 640, 480))
	width, _ = popup.Size()
	assert.Equal(t, 640, width)

	require.NoError(t, host.SendClose(context.Background(), popup))
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("child did not close")
	}
	require.Eventually(t, func() bool { return host.Count(protocol.TypeClose) == 1 }, time.Second, 5*time.Millisecond)
}

func TestOverBusRelay(t *testing.T) {
	t.Parallel()

	bus := testutil.NewBus(t)
	top := window.New("top")
	relay := window.New("relay-window", window.WithName("relay"))
	frame := window.New("frame-1", window.WithName("widget"))
	require.NoError(t, top.AddFrame(relay))
	require.NoError(t, top.AddFrame(frame))

	topHost, err := hostsim.New(bus, top,
		hostsim.WithLogHandler(testutil.DiscardHandler()),
		hostsim.WithRelay("relay"),
	)
	require.NoError(t, err)
	relayHost, err := hostsim.New(bus, relay,
		hostsim.WithLogHandler(testutil.DiscardHandler()),
		hostsim.WithDisplayContext(protocol.ContextIframe),
		hostsim.WithInitialProps(map[string]any{"via": "relay"}),
	)
	require.NoError(t, err)

	ep, err := bus.Attach(frame)
	require.NoError(t, err)
	c := newTestChild(t, window.NewPlatform(frame), ep)
	require.NoError(t, c.Init(context.Background()))

	assert.Equal(t, "relay-window", c.Parent().ID())
	assert.Equal(t, Props{"via": "relay"}, c.Props())
	assert.Equal(t, 1, topHost.Count(protocol.TypeInit))
	assert.Equal(t, 1, relayHost.Count(protocol.TypeInit))

	// props from the immediate window are not accepted any more
	err = topHost.PushProps(context.Background(), frame, map[string]any{"evil": true})
	assert.ErrorIs(t, err, transport.ErrNoHandler)
	assert.NotContains(t, c.Props(), "evil")

	require.NoError(t, c.Close(context.Background()))
	require.Eventually(t, func() bool { return relayHost.Count(protocol.TypeClose) == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, topHost.Count(protocol.TypeClose))
}

func TestOverBusParentGone(t *testing.T) {
	t.Parallel()

	bus := testutil.NewBus(t)
	top := window.New("top")
	frame := window.New("frame-1", window.WithName("widget"))
	require.NoError(t, top.AddFrame(frame))

	ep, err := bus.Attach(frame)
	require.NoError(t, err)

	rec := &recorder{}
	c := newTestChild(t, window.NewPlatform(frame), ep, rec.options()...)
	err = c.Init(context.Background())
	require.ErrorIs(t, err, ErrHandshakeFailed)
	require.ErrorIs(t, err, transport.ErrUnknownContext)
	assert.Equal(t, []string{"error"}, rec.snapshot())
}
