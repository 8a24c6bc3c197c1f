package app

import "errors"

var (
	ErrUnknownDriver       = errors.New("unknown store driver")
	ErrUnknownInvalidator  = errors.New("unknown invalidator")
	ErrUnknownLimiterStore = errors.New("unknown rate limiter store")
	ErrSetup               = errors.New("failed to set up application")
)
