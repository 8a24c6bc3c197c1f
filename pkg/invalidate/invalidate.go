package invalidate

import (
	"context"
	"errors"

	"github.com/dmitrymomot/menukit/pkg/subscription"
)

// Tag returns the cache tag of a partner.
func Tag(partnerID string) string {
	return "partner:" + partnerID
}

// Noop discards invalidations.
type Noop struct{}

func (Noop) Invalidate(context.Context, string) error { return nil }

// Func adapts a function to subscription.Invalidator.
type Func func(ctx context.Context, partnerID string) error

func (f Func) Invalidate(ctx context.Context, partnerID string) error { return f(ctx, partnerID) }

type multi []subscription.Invalidator

// Multi calls every invalidator in order and joins their errors.
func Multi(invalidators ...subscription.Invalidator) subscription.Invalidator {
	out := make(multi, 0, len(invalidators))
	for _, inv := range invalidators {
		if inv != nil {
			out = append(out, inv)
		}
	}
	return out
}

func (m multi) Invalidate(ctx context.Context, partnerID string) error {
	var errs []error
	for _, inv := range m {
		if err := inv.Invalidate(ctx, partnerID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
