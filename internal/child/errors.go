package child

import "errors"

var (
	ErrInvalidComponent = errors.New("component tag is required")
	ErrMissingPlatform  = errors.New("platform is required")
	ErrMissingMessenger = errors.New("messenger is required")
	ErrNoParent         = errors.New("can not find parent window")

	ErrHandshakeFailed = errors.New("handshake failed")
	ErrRedirectLoop    = errors.New("handshake redirect loop")
	ErrAlreadyStarted  = errors.New("handshake already started")

	ErrParentNotBound = errors.New("parent component window not set")
	ErrTerminated     = errors.New("child is no longer active")
	ErrNotEntered     = errors.New("display context not established")
)
