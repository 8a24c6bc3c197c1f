package webhook

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy calculates the delay before a retry. Attempt starts at 1.
type BackoffStrategy interface {
	NextInterval(attempt int) time.Duration
}

// ExponentialBackoff grows the delay by Multiplier per attempt with optional jitter.
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

// NextInterval returns min(InitialInterval * Multiplier^(attempt-1) * (1 ± JitterFactor), MaxInterval).
func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := cmpDefault(e.InitialInterval, time.Second)
	ceiling := cmpDefault(e.MaxInterval, 30*time.Second)
	mult := e.Multiplier
	if mult == 0 {
		mult = 2
	}

	interval := float64(initial) * math.Pow(mult, float64(attempt-1))
	if e.JitterFactor > 0 {
		interval *= 1 + (rand.Float64()*2-1)*e.JitterFactor
	}

	return time.Duration(min(interval, float64(ceiling)))
}

// FixedBackoff waits the same interval before every retry.
type FixedBackoff struct {
	Interval time.Duration
}

func (f FixedBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}

// DefaultBackoffStrategy returns exponential backoff from 1s to 30s with 10% jitter.
func DefaultBackoffStrategy() BackoffStrategy {
	return ExponentialBackoff{
		InitialInterval: time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2,
		JitterFactor:    0.1,
	}
}

func cmpDefault(d, def time.Duration) time.Duration {
	if d == 0 {
		return def
	}
	return d
}
