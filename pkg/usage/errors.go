package usage

import "errors"

var (
	ErrNotFound      = errors.New("partner not found")
	ErrNoResolver    = errors.New("qr code resolver not configured")
	ErrFailedToMeter = errors.New("failed to meter scan")
)
