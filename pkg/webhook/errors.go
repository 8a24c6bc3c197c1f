package webhook

import "errors"

// Authentication errors. Every signature failure matches ErrAuthentication with errors.Is.
var (
	ErrAuthentication   = errors.New("webhook authentication failed")
	ErrMissingSecret    = errors.Join(ErrAuthentication, errors.New("signing secret is not configured"))
	ErrMissingSignature = errors.Join(ErrAuthentication, errors.New("signature is missing"))
	ErrInvalidSignature = errors.Join(ErrAuthentication, errors.New("signature mismatch"))
	ErrExpiredSignature = errors.Join(ErrAuthentication, errors.New("signature timestamp outside tolerance"))
)

// Delivery errors for outbound webhooks.
var (
	ErrWebhookDeliveryFailed = errors.New("webhook delivery failed")
	ErrPermanentFailure      = errors.New("permanent webhook failure")
	ErrTemporaryFailure      = errors.New("temporary webhook failure")
	ErrCircuitOpen           = errors.New("webhook circuit breaker is open")
	ErrInvalidPayload        = errors.New("invalid webhook payload")
	ErrInvalidURL            = errors.New("invalid webhook URL")
	ErrTimeout               = errors.New("webhook request timeout")
)

// IsCircuitOpen checks if an error indicates the circuit breaker is open
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}
