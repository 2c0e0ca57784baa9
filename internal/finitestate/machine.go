// Package finitestate tracks the lifecycle of an embedded child:
//
//	created -> entering -> entered -> closing -> closed
//	              |
//	              +-> errored
//
// closing is also reachable before the handshake settles. closed and
// errored are terminal.
package finitestate

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/robbyt/go-fsm"
)

const (
	StatusCreated  = "created"
	StatusEntering = "entering"
	StatusEntered  = "entered"
	StatusClosing  = "closing"
	StatusClosed   = "closed"
	StatusErrored  = "errored"
)

// LifecycleTransitions lists the allowed moves out of each state.
var LifecycleTransitions = map[string][]string{
	StatusCreated:  {StatusEntering, StatusClosing},
	StatusEntering: {StatusEntered, StatusErrored, StatusClosing},
	StatusEntered:  {StatusClosing},
	StatusClosing:  {StatusClosed},
	StatusClosed:   {},
	StatusErrored:  {},
}

// SubscriberOption is a functional option for configuring state channel behavior
type SubscriberOption = fsm.SubscriberOption

// WithSyncTimeout sets a timeout for synchronous broadcast operations
var WithSyncTimeout = fsm.WithSyncTimeout

// Machine is the subset of the state machine the child relies on.
type Machine interface {
	// Transition moves to state if the current state allows it.
	Transition(state string) error

	// TransitionBool is Transition reporting success as a bool.
	TransitionBool(state string) bool

	// TransitionIfCurrentState moves to newState only when the machine is in currentState.
	TransitionIfCurrentState(currentState, newState string) error

	// GetState returns the current state.
	GetState() string

	// GetStateChan emits the state whenever it changes until ctx is canceled.
	GetStateChan(ctx context.Context) <-chan string

	// GetStateChanWithOptions is GetStateChan with subscriber options.
	GetStateChanWithOptions(ctx context.Context, opts ...SubscriberOption) <-chan string
}

// LifecycleFSM embeds fsm.Machine and makes state broadcasts synchronous so
// observers see terminal states even when the child shuts down quickly.
type LifecycleFSM struct {
	*fsm.Machine
}

func (m *LifecycleFSM) GetStateChan(ctx context.Context) <-chan string {
	return m.GetStateChanWithOptions(ctx, WithSyncTimeout(time.Second))
}

// New creates a lifecycle machine in StatusCreated.
func New(handler slog.Handler) (Machine, error) {
	machine, err := fsm.New(handler, StatusCreated, LifecycleTransitions)
	if err != nil {
		return nil, err
	}
	return &LifecycleFSM{Machine: machine}, nil
}

// IsTerminal reports whether no transition leaves state.
func IsTerminal(state string) bool {
	return state == StatusClosed || state == StatusErrored
}

// IsClosing reports whether state belongs to the close path.
func IsClosing(state string) bool {
	return slices.Contains([]string{StatusClosing, StatusClosed}, state)
}
