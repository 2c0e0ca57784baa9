package simulator

import "errors"

var (
	ErrInvalidScenario = errors.New("invalid scenario")
	ErrBuild           = errors.New("failed to build simulation")
	ErrTimeout         = errors.New("simulation timed out")
	ErrSkipped         = errors.New("step skipped: child never entered")
	ErrUnknownAction   = errors.New("unknown step action")
	ErrAlreadyRan      = errors.New("simulation already ran")
)
