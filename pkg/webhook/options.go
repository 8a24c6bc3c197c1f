package webhook

import "time"

// DeliveryResult reports the outcome of a single POST.
type DeliveryResult struct {
	Attempt    int
	StatusCode int
	Success    bool
	Duration   time.Duration
	Error      error
}

// DeliveryHook observes every attempt, including the failed ones.
type DeliveryHook func(result DeliveryResult)

// SendOption tunes a single Send call.
type SendOption func(*sendOptions)

type sendOptions struct {
	timeout    time.Duration
	maxRetries int
	backoff    BackoffStrategy
	secret     string
	headers    map[string]string
	breaker    *Breaker
	onDelivery DeliveryHook
}

func newSendOptions(opts []SendOption) *sendOptions {
	o := &sendOptions{
		timeout:    10 * time.Second,
		maxRetries: 3,
		backoff:    DefaultBackoffStrategy(),
		headers:    map[string]string{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithTimeout bounds each attempt. Non-positive values keep the 10s default.
func WithTimeout(d time.Duration) SendOption {
	return func(o *sendOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMaxRetries sets how many retries follow the first attempt. Zero sends once.
func WithMaxRetries(n int) SendOption {
	return func(o *sendOptions) {
		o.maxRetries = max(n, 0)
	}
}

// WithBackoff replaces the default jittered exponential backoff.
func WithBackoff(b BackoffStrategy) SendOption {
	return func(o *sendOptions) {
		if b != nil {
			o.backoff = b
		}
	}
}

// WithSignature signs the body with secret. See SignPayload for the header set.
func WithSignature(secret string) SendOption {
	return func(o *sendOptions) { o.secret = secret }
}

// WithHeader sets an extra request header. Empty keys or values are ignored.
func WithHeader(key, value string) SendOption {
	return func(o *sendOptions) {
		if key != "" && value != "" {
			o.headers[key] = value
		}
	}
}

// WithCircuitBreaker routes attempts through b. An open breaker fails Send with ErrCircuitOpen.
func WithCircuitBreaker(b *Breaker) SendOption {
	return func(o *sendOptions) { o.breaker = b }
}

// WithOnDelivery registers a hook called after each attempt.
func WithOnDelivery(hook DeliveryHook) SendOption {
	return func(o *sendOptions) { o.onDelivery = hook }
}
