package webhook

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/dmitrymomot/menukit/pkg/logger"
)

// BreakerConfig configures a per-endpoint circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold uint32
	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32
	// Interval resets the failure counts while closed. Zero never resets.
	Interval time.Duration
	// Timeout is how long the circuit stays open.
	Timeout time.Duration
}

// DefaultBreakerConfig opens after 5 consecutive failures for 30 seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		MaxRequests:      2,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
	}
}

// Breaker tracks delivery health of one endpoint. Reuse one instance per endpoint.
type Breaker = gobreaker.CircuitBreaker[int]

// NewBreaker creates a circuit breaker whose state changes are logged to l.
func NewBreaker(name string, cfg BreakerConfig, l *slog.Logger) *Breaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	if l == nil {
		l = slog.Default()
	}

	return gobreaker.NewCircuitBreaker[int](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("circuit breaker state changed",
				logger.Component("webhook"),
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
}
