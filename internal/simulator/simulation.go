// Package simulator runs a scenario: it builds the window tree, a memory
// bus, one scripted host per host window and the child, then drives the
// scenario's steps against them under a supervisor.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/atlanticdynamic/framelink/internal/child"
	"github.com/atlanticdynamic/framelink/internal/config"
	"github.com/atlanticdynamic/framelink/internal/hostsim"
	"github.com/atlanticdynamic/framelink/internal/protocol"
	"github.com/atlanticdynamic/framelink/internal/transport/memory"
	"github.com/atlanticdynamic/framelink/internal/window"
	"github.com/robbyt/go-supervisor/supervisor"
)

// Simulation is one scenario wired up and ready to run once.
type Simulation struct {
	scenario   *config.Scenario
	logHandler slog.Handler
	logger     *slog.Logger

	bus     *memory.Bus
	windows map[string]*window.Window
	hosts   map[string]*hostsim.Host
	child   *child.Child
	frame   *window.Window
	driver  *Driver

	events   *eventLog
	runOnce  sync.Once
	closeErr error
	closed   sync.Once
}

// New builds everything the scenario describes. Hosts start answering
// immediately; the child handshakes when Run starts it.
func New(scenario *config.Scenario, opts ...Option) (*Simulation, error) {
	if scenario == nil {
		return nil, fmt.Errorf("%w: nil scenario", ErrInvalidScenario)
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	s := &Simulation{
		scenario:   scenario,
		logHandler: slog.Default().Handler(),
		windows:    make(map[string]*window.Window, len(scenario.Windows)),
		hosts:      map[string]*hostsim.Host{},
		events:     &eventLog{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = slog.New(s.logHandler).WithGroup("simulator").With("scenario", scenario.Name)

	busOpts := []memory.Option{memory.WithLogHandler(s.logHandler)}
	if d := scenario.Timeouts.Request.AsDuration(); d > 0 {
		busOpts = append(busOpts, memory.WithRequestTimeout(d))
	}
	s.bus = memory.NewBus(busOpts...)

	if err := s.build(); err != nil {
		return nil, errors.Join(fmt.Errorf("%w: %w", ErrBuild, err), s.bus.Close())
	}
	s.driver = newDriver(s)
	return s, nil
}

func (s *Simulation) build() error {
	for _, w := range s.scenario.Windows {
		opts := []window.Option{window.WithSize(w.Width, w.Height)}
		if w.Name != "" {
			opts = append(opts, window.WithName(w.Name))
		}
		if w.Location != "" {
			opts = append(opts, window.WithLocation(w.Location))
		}
		s.windows[w.ID] = window.New(w.ID, opts...)
	}

	for _, w := range s.scenario.Windows {
		switch {
		case w.Parent != "":
			if err := s.windows[w.Parent].AddFrame(s.windows[w.ID]); err != nil {
				return fmt.Errorf("frame %s: %w", w.ID, err)
			}
		case w.Opener != "":
			s.windows[w.Opener].Open(s.windows[w.ID])
		}
	}

	for _, w := range s.scenario.Hosts() {
		host, err := hostsim.New(s.bus, s.windows[w.ID], hostOptions(w.Host, s.logHandler)...)
		if err != nil {
			return fmt.Errorf("host %s: %w", w.ID, err)
		}
		s.hosts[w.ID] = host
	}

	return s.buildChild()
}

func hostOptions(h *config.Host, handler slog.Handler) []hostsim.Option {
	opts := []hostsim.Option{hostsim.WithLogHandler(handler)}
	if h.Context != "" {
		// validated with the scenario
		display, _ := protocol.ParseDisplayContext(h.Context)
		opts = append(opts, hostsim.WithDisplayContext(display))
	}
	if h.Relay != "" {
		opts = append(opts, hostsim.WithRelay(h.Relay))
	}
	if len(h.Props) > 0 {
		opts = append(opts, hostsim.WithInitialProps(h.Props))
	}
	if h.Navigate != nil {
		opts = append(opts, hostsim.WithNavigate(*h.Navigate))
	}
	if h.ResizeFrames != nil {
		opts = append(opts, hostsim.WithFrameResize(*h.ResizeFrames))
	}
	return opts
}

func (s *Simulation) buildChild() error {
	cfg := s.scenario.Child
	s.frame = s.windows[cfg.Window]

	ep, err := s.bus.Attach(s.frame)
	if err != nil {
		return fmt.Errorf("child window %s: %w", cfg.Window, err)
	}

	opts := []child.Option{
		child.WithLogHandler(s.logHandler),
		child.WithOnEnter(func() { s.events.add("enter") }),
		child.WithOnExit(func() { s.events.add("exit") }),
		child.WithOnClose(func() { s.events.add("close") }),
		child.WithOnError(func(err error) { s.events.add("error: " + err.Error()) }),
		child.WithOnProps(func(child.Props) { s.events.add("props") }),
		child.WithRedirectDeferral(s.scenario.Timeouts.RedirectDeferral.AsDuration()),
	}
	if cfg.MaxRedirects != nil {
		opts = append(opts, child.WithMaxRedirects(*cfg.MaxRedirects))
	}

	c, err := child.New(
		child.Component{Tag: cfg.Tag, Metadata: cfg.Metadata},
		window.NewPlatform(s.frame),
		ep,
		opts...,
	)
	if err != nil {
		s.bus.Detach(s.frame)
		return err
	}
	s.child = c
	return nil
}

// Child returns the simulated child.
func (s *Simulation) Child() *child.Child {
	return s.child
}

// Host returns the host running in the window with id.
func (s *Simulation) Host(id string) (*hostsim.Host, bool) {
	h, ok := s.hosts[id]
	return h, ok
}

// Window returns the window with id.
func (s *Simulation) Window(id string) (*window.Window, bool) {
	w, ok := s.windows[id]
	return w, ok
}

// Run starts hosts, child and driver under a supervisor and returns once
// every step has run, ctx is canceled, or the scenario's run timeout
// expires. The returned report is never nil. A simulation runs once.
func (s *Simulation) Run(ctx context.Context) (*Report, error) {
	err := ErrAlreadyRan
	s.runOnce.Do(func() {
		err = s.run(ctx)
	})
	return s.Report(), err
}

func (s *Simulation) run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if d := s.scenario.Timeouts.Run.AsDuration(); d > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, d)
		defer cancel()
	}
	s.driver.finish = cancel

	runnables := make([]supervisor.Runnable, 0, len(s.hosts)+2)
	for _, w := range s.scenario.Hosts() {
		runnables = append(runnables, s.hosts[w.ID])
	}
	runnables = append(runnables, s.driver, s.child)

	super, err := supervisor.New(
		supervisor.WithContext(runCtx),
		supervisor.WithLogHandler(s.logHandler),
		supervisor.WithRunnables(runnables...),
	)
	if err != nil {
		return fmt.Errorf("failed to create supervisor: %w", err)
	}

	s.logger.Info("Simulation starting", "hosts", len(s.hosts), "steps", len(s.scenario.Steps))
	runErr := super.Run()

	errz := []error{}
	if runErr != nil {
		errz = append(errz, fmt.Errorf("supervisor: %w", runErr))
	}
	if !s.driver.Finished() {
		switch {
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			errz = append(errz, fmt.Errorf("%w after %s", ErrTimeout, s.scenario.Timeouts.Run))
		case ctx.Err() != nil:
			errz = append(errz, ctx.Err())
		}
	}
	errz = append(errz, s.Close())

	s.logger.Info("Simulation finished", "state", s.child.GetState(), "steps", len(s.driver.Results()))
	return errors.Join(errz...)
}

// Close stops the child and shuts the bus down, waiting for in-flight
// deliveries. It is safe to call more than once.
func (s *Simulation) Close() error {
	s.closed.Do(func() {
		s.child.Stop()
		s.closeErr = s.bus.Close()
	})
	return s.closeErr
}

// eventLog records child callbacks in order.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}
