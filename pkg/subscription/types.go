package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/menukit/pkg/plan"
)

// Status represents the lifecycle state of a subscription.
type Status string

const (
	StatusActive    Status = "active"
	StatusHalted    Status = "halted"
	StatusCancelled Status = "cancelled"
	StatusPaused    Status = "paused"

	// StatusExpired is derived from the expiry date at read time and never persisted.
	StatusExpired Status = "expired"
)

// Valid reports whether s may be persisted.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusHalted, StatusCancelled, StatusPaused:
		return true
	}
	return false
}

// Subscription is the billing state of a partner. The plan is referenced by id and
// catalog version; plan details are always read from the catalog.
type Subscription struct {
	PlanID                string    `json:"plan_id"`
	PlanVersion           int       `json:"plan_version"`
	Status                Status    `json:"status"`
	StartDate             time.Time `json:"start_date"`
	ExpiryDate            time.Time `json:"expiry_date"`
	GatewaySubscriptionID string    `json:"gateway_subscription_id,omitempty"`
	GatewayPaymentID      string    `json:"gateway_payment_id,omitempty"`
	IsFreePlanUsed        bool      `json:"is_free_plan_used"`
	Usage                 Usage     `json:"usage"`
}

// EffectiveStatus returns StatusExpired once the expiry date has passed,
// otherwise the stored status.
func (s *Subscription) EffectiveStatus(now time.Time) Status {
	if !s.ExpiryDate.IsZero() && s.ExpiryDate.Before(now) {
		return StatusExpired
	}
	return s.Status
}

// IsAccessible reports whether paid features may be served at now.
func (s *Subscription) IsAccessible(now time.Time) bool {
	return s.EffectiveStatus(now) == StatusActive
}

// Partner is a tenant account owning one subscription.
type Partner struct {
	ID           string        `json:"id"`
	Country      string        `json:"country,omitempty"`
	FeatureFlags string        `json:"feature_flags"`
	Subscription *Subscription `json:"subscription,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// PaymentRecord is one row of the append-only payment ledger.
// GatewayPaymentID is unique across the ledger.
type PaymentRecord struct {
	ID                    uuid.UUID      `json:"id"`
	PartnerID             string         `json:"partner_id"`
	GatewayPaymentID      string         `json:"gateway_payment_id"`
	GatewaySubscriptionID string         `json:"gateway_subscription_id,omitempty"`
	Amount                plan.Money     `json:"amount"`
	Date                  time.Time      `json:"date"`
	Details               map[string]any `json:"details,omitempty"`
}

// StatusUpdate is a partial write of the status and expiry fields.
// Nil fields are left unchanged.
type StatusUpdate struct {
	Status                Status
	ExpiryDate            *time.Time
	GatewaySubscriptionID string
}
