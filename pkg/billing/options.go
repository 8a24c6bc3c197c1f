package billing

import (
	"io"
	"log/slog"
	"time"
)

type settings struct {
	logger *slog.Logger
	now    func() time.Time
}

func newSettings(opts []Option) settings {
	s := settings{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures any billing entry point.
type Option func(*settings)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}
