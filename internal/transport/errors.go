package transport

import "errors"

var (
	ErrUnknownContext = errors.New("unknown target context")
	ErrNoHandler      = errors.New("no handler registered for message")
	ErrTimeout        = errors.New("timed out waiting for reply")
	ErrClosed         = errors.New("message bus is closed")
	ErrPayload        = errors.New("payload cannot be cloned")
	ErrDuplicate      = errors.New("context already attached")
)
