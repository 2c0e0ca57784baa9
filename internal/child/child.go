// Package child implements the child side of the embedding protocol: it
// finds the context that owns this component, performs the INIT handshake,
// listens for PROPS/CLOSE/RESIZE from that context only, and sends CLOSE,
// RESIZE and REDIRECT back.
package child

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/atlanticdynamic/framelink/internal/finitestate"
	"github.com/atlanticdynamic/framelink/internal/oneshot"
	"github.com/atlanticdynamic/framelink/internal/protocol"
	"github.com/atlanticdynamic/framelink/internal/transport"
	"github.com/robbyt/go-loglater"
)

// DefaultMaxRedirects bounds how many relays a handshake follows.
const DefaultMaxRedirects = 16

// Component identifies the embedded unit.
type Component struct {
	Tag      string
	Metadata map[string]string
}

func (c Component) Validate() error {
	if strings.TrimSpace(c.Tag) == "" {
		return ErrInvalidComponent
	}
	return nil
}

// Messenger is the message channel the child talks through.
type Messenger interface {
	// Request sends a message and waits for the correlated reply.
	Request(ctx context.Context, target transport.Handle, msgType string, data map[string]any) (map[string]any, error)

	// Post sends a one-way message.
	Post(ctx context.Context, target transport.Handle, msgType string, data map[string]any) error

	// Subscribe routes msgType messages sent by sender to h until the
	// returned function is called.
	Subscribe(msgType string, sender transport.Handle, h transport.Handler) (func(), error)
}

// Platform is the host environment around the child.
type Platform interface {
	// Parent returns the enclosing context.
	Parent() (transport.Handle, bool)

	// Opener returns the context that opened this one, if any.
	Opener() (transport.Handle, bool)

	// Frame resolves a child context of from by identifier.
	Frame(from transport.Handle, id string) (transport.Handle, bool)

	// ResizeTo resizes the child's own surface.
	ResizeTo(width, height int) error

	// Focus gives the child's own surface input focus.
	Focus()

	// Navigate points another context at url.
	Navigate(target transport.Handle, url string) error
}

// Child is one embedded component instance.
type Child struct {
	component Component
	platform  Platform
	messenger Messenger

	logHandler slog.Handler
	logger     *slog.Logger
	history    *loglater.LogCollector
	fsm        finitestate.Machine

	onEnter *oneshot.Hook
	onExit  *oneshot.Hook
	onClose *oneshot.Hook
	onError *oneshot.Func[error]
	onProps func(Props)

	maxRedirects     int
	redirectDeferral time.Duration

	mu sync.Mutex
	// immediate enclosing context, fixed at construction
	parentWindow transport.Handle
	// context the protocol is spoken with; final once bound is true
	parentComponent transport.Handle
	bound           bool
	display         protocol.DisplayContext
	props           Props
	unsubscribe     []func()

	// closed once the first props notification has been delivered
	ready chan struct{}
	// closed on reaching closed or errored
	done     chan struct{}
	doneOnce sync.Once

	runMu     sync.Mutex
	runCancel context.CancelFunc
}

// New validates the component and options and locates the enclosing
// context. It fails when no enclosing context exists; there is nothing to
// handshake with.
//
// New sends nothing. Callers must call Init, or Run under a supervisor, to
// perform the handshake; until then the child stays in the created state.
func New(component Component, platform Platform, messenger Messenger, opts ...Option) (*Child, error) {
	if err := component.Validate(); err != nil {
		return nil, err
	}
	if platform == nil {
		return nil, fmt.Errorf("[%s] %w", component.Tag, ErrMissingPlatform)
	}
	if messenger == nil {
		return nil, fmt.Errorf("[%s] %w", component.Tag, ErrMissingMessenger)
	}

	c := &Child{
		component:    component,
		platform:     platform,
		messenger:    messenger,
		logHandler:   slog.Default().Handler(),
		onEnter:      oneshot.New(nil),
		onExit:       oneshot.New(nil),
		onClose:      oneshot.New(nil),
		onError:      oneshot.Wrap[error](nil),
		onProps:      func(Props) {},
		maxRedirects: DefaultMaxRedirects,
		props:        Props{},
		ready:        make(chan struct{}),
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.history = loglater.NewLogCollector(c.logHandler)
	c.logger = slog.New(c.history).WithGroup("child.Child").With("component", component.Tag)

	machine, err := finitestate.New(c.logger.WithGroup("fsm").Handler())
	if err != nil {
		return nil, fmt.Errorf("[%s] failed to create state machine: %w", component.Tag, err)
	}
	c.fsm = machine

	parent, ok := platform.Parent()
	if !ok || parent == nil {
		return nil, fmt.Errorf("[%s] %w", component.Tag, ErrNoParent)
	}
	c.parentWindow = parent
	c.parentComponent = parent

	c.logger.Debug("Child created", "parent", parent.ID())
	return c, nil
}

func (c *Child) String() string {
	return "child.Child(" + c.component.Tag + ")"
}

// Component returns the descriptor the child was built with.
func (c *Child) Component() Component {
	return c.component
}

// Parent returns the context the child currently converses with.
func (c *Child) Parent() transport.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parentComponent
}

// DisplayContext returns how the parent displays the child. It is empty
// until the handshake succeeds.
func (c *Child) DisplayContext() protocol.DisplayContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.display
}

// Props returns a copy of the current props.
func (c *Child) Props() Props {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.props.Clone()
}

// Done is closed when the child reaches a terminal state.
func (c *Child) Done() <-chan struct{} {
	return c.done
}

func (c *Child) finish() {
	c.doneOnce.Do(func() { close(c.done) })
}
