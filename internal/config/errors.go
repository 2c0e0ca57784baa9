package config

import "errors"

var (
	ErrFailedToLoadConfig     = errors.New("failed to load scenario")
	ErrFailedToValidateConfig = errors.New("failed to validate scenario")
	ErrUnsupportedConfigVer   = errors.New("unsupported scenario version")
	ErrInvalidDuration        = errors.New("invalid duration")

	ErrWindow = errors.New("invalid window")
	ErrHost   = errors.New("invalid host")
	ErrChild  = errors.New("invalid child")
	ErrStep   = errors.New("invalid step")
)
