package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atlanticdynamic/framelink/internal/config"
	"github.com/atlanticdynamic/framelink/internal/finitestate"
	"github.com/robbyt/go-supervisor/supervisor"
)

var _ supervisor.Runnable = (*Driver)(nil)

const (
	childPollInterval = 25 * time.Millisecond
	settleTimeout     = time.Second
)

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Index    int
	Step     config.Step
	Err      error
	Duration time.Duration
}

// Driver waits for the child to finish its handshake, runs the scenario's
// steps in order, and then ends the simulation. A failing step is recorded
// and the next one still runs.
type Driver struct {
	sim    *Simulation
	logger *slog.Logger
	// ends the simulation once every step ran
	finish context.CancelFunc

	mu      sync.Mutex
	results []StepResult

	finished atomic.Bool

	runMu     sync.Mutex
	runCancel context.CancelFunc
}

func newDriver(sim *Simulation) *Driver {
	return &Driver{
		sim:    sim,
		logger: sim.logger.WithGroup("driver"),
		finish: func() {},
	}
}

func (d *Driver) String() string {
	return "simulator.Driver"
}

// Run implements supervisor.Runnable.
func (d *Driver) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.runMu.Lock()
	d.runCancel = cancel
	d.runMu.Unlock()

	state, err := d.waitForChild(runCtx)
	if err != nil {
		d.logger.Debug("Driver stopped before the child settled", "error", err)
		return nil
	}

	steps := d.sim.scenario.Steps
	if state != finitestate.StatusEntered {
		d.logger.Warn("Child did not enter, skipping steps", "state", state)
		for i, step := range steps {
			d.record(StepResult{Index: i + 1, Step: step, Err: ErrSkipped})
		}
	} else {
		for i, step := range steps {
			if runCtx.Err() != nil {
				d.logger.Debug("Driver canceled", "remaining", len(steps)-i)
				return nil
			}
			d.runStep(runCtx, i+1, step)
		}
		d.settle(runCtx, steps)
	}

	d.finished.Store(true)
	d.logger.Debug("All steps ran", "steps", len(steps))
	d.finish()
	return nil
}

// Stop implements supervisor.Runnable.
func (d *Driver) Stop() {
	d.runMu.Lock()
	cancel := d.runCancel
	d.runMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Finished reports whether every step ran.
func (d *Driver) Finished() bool {
	return d.finished.Load()
}

// Results returns the step results so far.
func (d *Driver) Results() []StepResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]StepResult(nil), d.results...)
}

// waitForChild blocks until the child has entered or can not enter any more.
func (d *Driver) waitForChild(ctx context.Context) (string, error) {
	settled := func(state string) bool {
		return state == finitestate.StatusEntered || finitestate.IsTerminal(state) || finitestate.IsClosing(state)
	}

	states := d.sim.child.GetStateChan(ctx)
	// the channel may skip a state under load
	poll := time.NewTicker(childPollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case state, ok := <-states:
			if !ok {
				return "", ctx.Err()
			}
			if settled(state) {
				return state, nil
			}
		case <-poll.C:
			if state := d.sim.child.GetState(); settled(state) {
				return state, nil
			}
		}
	}
}

// settle waits for a close sent by a step to reach the child before the
// simulation is torn down.
func (d *Driver) settle(ctx context.Context, steps []config.Step) {
	closes := false
	for _, step := range steps {
		if step.Action == config.ActionClose || step.Action == config.ActionHostClose {
			closes = true
		}
	}
	if !closes {
		return
	}

	select {
	case <-d.sim.child.Done():
	case <-ctx.Done():
	case <-time.After(settleTimeout):
		d.logger.Warn("Child did not close", "state", d.sim.child.GetState())
	}
}

func (d *Driver) runStep(ctx context.Context, index int, step config.Step) {
	logger := d.logger.With("step", index, "action", step.Action)
	start := time.Now()
	err := d.execute(ctx, step)
	d.record(StepResult{Index: index, Step: step, Err: err, Duration: time.Since(start)})

	if err != nil {
		logger.Warn("Step failed", "error", err)
		return
	}
	logger.Debug("Step done")
}

func (d *Driver) execute(ctx context.Context, step config.Step) error {
	c := d.sim.child
	frame := d.sim.frame

	if step.IsHostAction() {
		host, ok := d.sim.hosts[step.From]
		if !ok {
			return fmt.Errorf("no host in window %s", step.From)
		}
		switch step.Action {
		case config.ActionProps:
			return host.PushProps(ctx, frame, step.Props)
		case config.ActionHostClose:
			return host.SendClose(ctx, frame)
		case config.ActionHostResize:
			return host.RequestResize(ctx, frame, step.Width, step.Height)
		}
	}

	switch step.Action {
	case config.ActionClose:
		return c.Close(ctx)
	case config.ActionResize:
		return c.Resize(ctx, step.Height, step.Width)
	case config.ActionRedirect:
		return c.RedirectParent(ctx, step.URL)
	case config.ActionFocus:
		c.Focus()
		return nil
	case config.ActionExit:
		c.Exit()
		return nil
	case config.ActionWait:
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(step.Duration.AsDuration()):
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownAction, step.Action)
}

func (d *Driver) record(r StepResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results = append(d.results, r)
}
