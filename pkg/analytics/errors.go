package analytics

import "errors"

var (
	ErrIndexFailed    = errors.New("failed to index scan record")
	ErrMissingPartner  = errors.New("scan record has no partner id")
)
