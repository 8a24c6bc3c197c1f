package subscription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/menukit/pkg/feature"
	"github.com/dmitrymomot/menukit/pkg/logger"
	"github.com/dmitrymomot/menukit/pkg/plan"
)

// Service owns subscription state transitions.
type Service interface {
	// Onboard creates a partner on the catalog trial plan.
	Onboard(ctx context.Context, partnerID, country string) (*Partner, error)

	// Upgrade replaces the whole subscription block with a fresh one for planID.
	Upgrade(ctx context.Context, partnerID, planID string, isFreePlanUsed bool) (*Subscription, error)

	// Activate is Upgrade for a verified gateway payment.
	Activate(ctx context.Context, params ActivateParams) (*Subscription, error)

	// Apply runs a gateway event through the transition table.
	Apply(ctx context.Context, ev Event) (Outcome, error)

	// Get returns the partner together with its plan and effective status.
	Get(ctx context.Context, partnerID string) (*View, error)

	// HasFeature reports whether a partner may use a feature. Fails closed.
	HasFeature(ctx context.Context, partnerID string, key feature.Key) bool
}

// ActivateParams carries a verified payment.
type ActivateParams struct {
	PartnerID             string
	PlanID                string
	GatewaySubscriptionID string
	GatewayPaymentID      string
}

// View is a read model of a partner's subscription.
type View struct {
	Partner    *Partner   `json:"partner"`
	Plan       *plan.Plan `json:"plan,omitempty"`
	Status     Status     `json:"status"`
	Accessible bool       `json:"accessible"`
}

// Outcome describes what Apply did with an event.
type Outcome string

const (
	// OutcomeApplied means the event mutated the subscription.
	OutcomeApplied Outcome = "applied"
	// OutcomeDuplicatePayment means status was rewritten but the payment was already recorded.
	OutcomeDuplicatePayment Outcome = "duplicate_payment"
	// OutcomeUnknownPlan means the gateway plan id is not ours; nothing was read or written.
	OutcomeUnknownPlan Outcome = "unknown_plan"
	// OutcomeIgnored means the event carries no state change.
	OutcomeIgnored Outcome = "ignored"
)

type service struct {
	catalog     plan.Catalog
	store       Store
	ledger      Ledger
	invalidator Invalidator
	logger      *slog.Logger
	now         func() time.Time
}

// NewService creates a new Service with the given dependencies.
// Panics if a required dependency is nil.
func NewService(catalog plan.Catalog, store Store, ledger Ledger, invalidator Invalidator, opts ...ServiceOption) Service {
	if catalog == nil {
		panic("subscription: plan catalog is required")
	}
	if store == nil {
		panic("subscription: Store is required")
	}
	if ledger == nil {
		panic("subscription: Ledger is required")
	}
	if invalidator == nil {
		panic("subscription: Invalidator is required")
	}

	s := &service{
		catalog:     catalog,
		store:       store,
		ledger:      ledger,
		invalidator: invalidator,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Onboard(ctx context.Context, partnerID, country string) (*Partner, error) {
	if partnerID == "" {
		return nil, ErrMissingPartnerID
	}

	trial, ok := s.catalog.Trial()
	if !ok {
		return nil, ErrNoTrialPlan
	}

	now := s.now().UTC()
	sub := newSubscription(trial, now, false)
	partner := &Partner{
		ID:           partnerID,
		Country:      country,
		FeatureFlags: feature.Derive(trial.Features),
		Subscription: &sub,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Create(ctx, partner); err != nil {
		return nil, err
	}

	s.invalidate(ctx, partnerID)
	return partner, nil
}

func (s *service) Upgrade(ctx context.Context, partnerID, planID string, isFreePlanUsed bool) (*Subscription, error) {
	return s.replace(ctx, partnerID, planID, isFreePlanUsed, func(*Subscription) {})
}

func (s *service) Activate(ctx context.Context, params ActivateParams) (*Subscription, error) {
	return s.replace(ctx, params.PartnerID, params.PlanID, true, func(sub *Subscription) {
		sub.GatewaySubscriptionID = params.GatewaySubscriptionID
		sub.GatewayPaymentID = params.GatewayPaymentID
	})
}

// replace builds a fresh subscription block and overwrites the stored one.
// Prior usage and gateway ids are discarded.
func (s *service) replace(ctx context.Context, partnerID, planID string, isFreePlanUsed bool, mutate func(*Subscription)) (*Subscription, error) {
	if partnerID == "" {
		return nil, ErrMissingPartnerID
	}

	p, err := s.catalog.Get(planID)
	if err != nil {
		return nil, err
	}

	sub := newSubscription(p, s.now().UTC(), isFreePlanUsed)
	mutate(&sub)

	if err := s.store.ReplaceSubscription(ctx, partnerID, sub, feature.Derive(p.Features), sub.StartDate); err != nil {
		if errors.Is(err, ErrPartnerNotFound) {
			return nil, err
		}
		return nil, errors.Join(ErrFailedToSaveSubscription, err)
	}

	s.invalidate(ctx, partnerID)
	return &sub, nil
}

func (s *service) Apply(ctx context.Context, ev Event) (Outcome, error) {
	meta := ev.EventMeta()

	// Shared gateway accounts deliver webhooks for other products.
	if !s.catalog.IsKnownGatewayPlan(meta.GatewayPlanID) {
		return OutcomeUnknownPlan, nil
	}
	if meta.PartnerID == "" {
		return OutcomeIgnored, ErrMissingPartnerID
	}

	var (
		upd     StatusUpdate
		payment *Payment
	)
	switch e := ev.(type) {
	case Charged:
		upd = StatusUpdate{Status: StatusActive, ExpiryDate: periodEnd(meta), GatewaySubscriptionID: meta.GatewaySubscriptionID}
		payment = e.Payment
	case Resumed:
		upd = StatusUpdate{Status: StatusActive, ExpiryDate: periodEnd(meta)}
	case Halted:
		upd = StatusUpdate{Status: StatusHalted}
	case Cancelled:
		upd = StatusUpdate{Status: StatusCancelled}
	case Paused:
		upd = StatusUpdate{Status: StatusPaused}
	case Pending, Unhandled:
		return OutcomeIgnored, nil
	default:
		return OutcomeIgnored, fmt.Errorf("unexpected event type %T", ev)
	}

	now := s.now().UTC()
	if err := s.store.UpdateStatus(ctx, meta.PartnerID, upd, now); err != nil {
		if errors.Is(err, ErrPartnerNotFound) || errors.Is(err, ErrSubscriptionNotFound) {
			return OutcomeIgnored, err
		}
		return OutcomeIgnored, errors.Join(ErrFailedToSaveSubscription, err)
	}

	outcome := OutcomeApplied
	if payment != nil && payment.ID != "" {
		err := s.ledger.AppendPayment(ctx, PaymentRecord{
			ID:                    uuid.New(),
			PartnerID:             meta.PartnerID,
			GatewayPaymentID:      payment.ID,
			GatewaySubscriptionID: meta.GatewaySubscriptionID,
			Amount:                payment.Amount,
			Date:                  now,
			Details: map[string]any{
				"event":            string(ev.Type()),
				"gateway_plan_id":  meta.GatewayPlanID,
				"internal_plan_id": meta.InternalPlanID,
				"store_name":       meta.StoreName,
			},
		})
		switch {
		case errors.Is(err, ErrDuplicatePayment):
			outcome = OutcomeDuplicatePayment
		case err != nil:
			s.invalidate(ctx, meta.PartnerID)
			return OutcomeApplied, errors.Join(ErrFailedToRecordPayment, err)
		}
	}

	s.invalidate(ctx, meta.PartnerID)
	return outcome, nil
}

func (s *service) Get(ctx context.Context, partnerID string) (*View, error) {
	partner, err := s.store.Get(ctx, partnerID)
	if err != nil {
		return nil, err
	}

	v := &View{Partner: partner}
	if partner.Subscription == nil {
		return v, nil
	}

	now := s.now()
	v.Status = partner.Subscription.EffectiveStatus(now)
	v.Accessible = partner.Subscription.IsAccessible(now)
	if p, err := s.catalog.Get(partner.Subscription.PlanID); err == nil {
		v.Plan = &p
	}
	return v, nil
}

func (s *service) HasFeature(ctx context.Context, partnerID string, key feature.Key) bool {
	partner, err := s.store.Get(ctx, partnerID)
	if err != nil || partner.Subscription == nil {
		return false
	}
	if !partner.Subscription.IsAccessible(s.now()) {
		return false
	}
	return feature.Parse(partner.FeatureFlags).Enabled(key)
}

func (s *service) invalidate(ctx context.Context, partnerID string) {
	if err := s.invalidator.Invalidate(ctx, partnerID); err != nil {
		s.logger.WarnContext(ctx, "cache invalidation failed",
			logger.Component("subscription"),
			logger.PartnerID(partnerID),
			logger.Error(err),
		)
	}
}

func newSubscription(p plan.Plan, now time.Time, isFreePlanUsed bool) Subscription {
	return Subscription{
		PlanID:         p.ID,
		PlanVersion:    p.Version,
		Status:         StatusActive,
		StartDate:      now,
		ExpiryDate:     p.ExpiresAt(now),
		IsFreePlanUsed: isFreePlanUsed,
		Usage:          Usage{ScansCycle: 0, LastReset: now},
	}
}

// periodEnd returns nil when the gateway reported no period end, leaving expiry unchanged.
func periodEnd(m Meta) *time.Time {
	if m.PeriodEnd.IsZero() {
		return nil
	}
	t := m.PeriodEnd.UTC()
	return &t
}
