package feature

import "errors"

// ErrUnknownKey is returned by ParseKey for names outside the canonical key set.
var ErrUnknownKey = errors.New("unknown feature key")
