package invalidate

import "errors"

var (
	ErrEmptyPartnerID    = errors.New("partner id is required")
	ErrClosed            = errors.New("invalidator is closed")
	ErrRedisInvalidation = errors.New("redis invalidation failed")
	ErrHTTPInvalidation  = errors.New("http invalidation failed")
	ErrAMQPInvalidation  = errors.New("amqp invalidation failed")
)
