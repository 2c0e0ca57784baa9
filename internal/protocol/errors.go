package protocol

import "errors"

var (
	ErrInvalidPayload        = errors.New("invalid message payload")
	ErrUnknownDisplayContext = errors.New("unknown display context")
)
