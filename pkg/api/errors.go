package api

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/menukit/pkg/plan"
	"github.com/dmitrymomot/menukit/pkg/subscription"
	"github.com/dmitrymomot/menukit/pkg/usage"
)

var (
	ErrMalformedBody  = errors.New("malformed request body")
	ErrBodyTooLarge   = errors.New("request body too large")
	ErrInvalidFeature = errors.New("unknown feature")
	ErrInvalidSize    = errors.New("invalid image size")
	ErrTooManyScans   = errors.New("too many scans")
)

// errorStatus maps domain errors of the partner routes to a status and a client
// message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "request body too large"
	case errors.Is(err, ErrTooManyScans):
		return http.StatusTooManyRequests, "too many scans"
	case errors.Is(err, ErrMalformedBody):
		return http.StatusBadRequest, "malformed request body"
	case errors.Is(err, ErrInvalidFeature):
		return http.StatusBadRequest, "unknown feature"
	case errors.Is(err, ErrInvalidSize):
		return http.StatusBadRequest, "invalid image size"
	case errors.Is(err, subscription.ErrMissingPartnerID):
		return http.StatusBadRequest, "partner id is required"
	case errors.Is(err, plan.ErrPlanNotFound):
		return http.StatusBadRequest, "unknown plan"
	case errors.Is(err, subscription.ErrPartnerAlreadyExists):
		return http.StatusConflict, "partner already exists"
	case errors.Is(err, subscription.ErrPartnerNotFound),
		errors.Is(err, subscription.ErrSubscriptionNotFound):
		return http.StatusNotFound, "partner not found"
	case errors.Is(err, usage.ErrNotFound):
		return http.StatusNotFound, "menu not found"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
