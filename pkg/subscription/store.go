package subscription

import (
	"context"
	"time"
)

// Store persists partners and their subscription. Every method is a single write
// against the backing store; no call spans more than one record.
type Store interface {
	// Create inserts a new partner. Returns ErrPartnerAlreadyExists on conflict.
	Create(ctx context.Context, partner *Partner) error

	// Get returns a partner or ErrPartnerNotFound.
	Get(ctx context.Context, partnerID string) (*Partner, error)

	// ReplaceSubscription overwrites the whole subscription block and the feature flags.
	// Returns ErrPartnerNotFound when the partner does not exist.
	ReplaceSubscription(ctx context.Context, partnerID string, sub Subscription, featureFlags string, now time.Time) error

	// UpdateStatus overwrites status and, when set, expiry date and gateway subscription id.
	// Returns ErrPartnerNotFound or ErrSubscriptionNotFound.
	UpdateStatus(ctx context.Context, partnerID string, upd StatusUpdate, now time.Time) error
}

// Ledger is the append-only payment ledger.
type Ledger interface {
	// AppendPayment inserts a record. Returns ErrDuplicatePayment when a record with the
	// same gateway payment id exists.
	AppendPayment(ctx context.Context, rec PaymentRecord) error
}

// Invalidator signals the external caching layer that a partner changed.
type Invalidator interface {
	Invalidate(ctx context.Context, partnerID string) error
}
