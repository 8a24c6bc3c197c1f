package razorpay

import "errors"

var (
	ErrMalformedPayload   = errors.New("malformed razorpay webhook payload")
	ErrMissingCredentials = errors.New("razorpay key id and secret are required")
	ErrMissingPlanID      = errors.New("gateway plan id is required")
	ErrGateway            = errors.New("razorpay request failed")
	ErrUnexpectedResponse = errors.New("unexpected razorpay response")
	ErrGatewayUnavailable = errors.New("razorpay circuit breaker is open")
)
