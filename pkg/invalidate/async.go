package invalidate

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/menukit/pkg/logger"
	"github.com/dmitrymomot/menukit/pkg/subscription"
)

// Async runs invalidations in the background. Invalidate returns immediately;
// errors are only logged.
type Async struct {
	next    subscription.Invalidator
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// AsyncOption configures Async.
type AsyncOption func(*Async)

// WithAsyncLogger sets the logger for failed invalidations.
func WithAsyncLogger(l *slog.Logger) AsyncOption {
	return func(a *Async) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithAsyncTimeout bounds each background call. Default 5s.
func WithAsyncTimeout(d time.Duration) AsyncOption {
	return func(a *Async) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAsync wraps next. Panics if next is nil.
func NewAsync(next subscription.Invalidator, opts ...AsyncOption) *Async {
	if next == nil {
		panic("invalidate: next invalidator is required")
	}
	a := &Async{
		next:    next,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Invalidate schedules the call. The request context's values are kept but its
// cancellation is not.
func (a *Async) Invalidate(ctx context.Context, partnerID string) error {
	if partnerID == "" {
		return ErrEmptyPartnerID
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()

		start := time.Now()
		if err := a.next.Invalidate(ctx, partnerID); err != nil {
			a.logger.WarnContext(ctx, "cache invalidation failed",
				logger.Component("invalidate"),
				logger.PartnerID(partnerID),
				logger.Duration(time.Since(start)),
				logger.Error(err),
			)
		}
	}()
	return nil
}

// Close stops accepting work and waits for in-flight calls or ctx.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
