package logging

import "errors"

var (
	ErrUnknownLevel  = errors.New("unknown log level")
	ErrUnknownFormat = errors.New("unknown log format")
	ErrOutput        = errors.New("unsupported log output")
)
