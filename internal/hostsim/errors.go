package hostsim

import "errors"

var ErrInvalidHost = errors.New("invalid host")
