package billing

import (
	"errors"
	"net/http"
)

// Error taxonomy shared by all entry points.
var (
	// ErrAuthentication is a missing or mismatched signature. Nothing is parsed or written.
	ErrAuthentication = errors.New("authentication failed")
	// ErrValidation is a structurally invalid request. Nothing is written.
	ErrValidation = errors.New("validation failed")
	// ErrUnknownEntity is a gateway plan or event this system does not own.
	// It is acknowledged as success so the gateway stops retrying.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrNotFound means the partner or its subscription does not exist.
	ErrNotFound = errors.New("not found")
	// ErrLimitExceeded is the scan quota denial. It is a business outcome.
	ErrLimitExceeded = errors.New("scan limit exceeded")
	// ErrPartialWrite means the ledger write failed after the subscription write succeeded.
	ErrPartialWrite = errors.New("partial write")
	// ErrInternal is any store or gateway failure.
	ErrInternal = errors.New("internal error")
)

// StatusCode maps a taxonomy error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case err == nil,
		errors.Is(err, ErrUnknownEntity),
		errors.Is(err, ErrLimitExceeded),
		errors.Is(err, ErrPartialWrite):
		return http.StatusOK
	case errors.Is(err, ErrAuthentication):
		return http.StatusBadRequest
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
