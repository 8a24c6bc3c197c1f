package mongo

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/menukit/pkg/plan"
	"github.com/dmitrymomot/menukit/pkg/subscription"
)

type partnerModel struct {
	ID           string             `bson:"_id"`
	Country      string             `bson:"country"`
	FeatureFlags string             `bson:"feature_flags"`
	Subscription *subscriptionModel `bson:"subscription,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

type subscriptionModel struct {
	PlanID                string     `bson:"plan_id"`
	PlanVersion           int        `bson:"plan_version"`
	Status                string     `bson:"status"`
	StartDate             time.Time  `bson:"start_date"`
	ExpiryDate            *time.Time `bson:"expiry_date,omitempty"`
	GatewaySubscriptionID string     `bson:"gateway_subscription_id"`
	GatewayPaymentID      string     `bson:"gateway_payment_id"`
	IsFreePlanUsed        bool       `bson:"is_free_plan_used"`
	Usage                 usageModel `bson:"usage"`
}

type usageModel struct {
	ScansCycle int64      `bson:"scans_cycle"`
	LastReset  *time.Time `bson:"last_reset,omitempty"`
}

type paymentModel struct {
	ID                    string         `bson:"_id"`
	PartnerID             string         `bson:"partner_id"`
	GatewayPaymentID      string         `bson:"gateway_payment_id"`
	GatewaySubscriptionID string         `bson:"gateway_subscription_id"`
	Amount                int64          `bson:"amount"`
	Currency              string         `bson:"currency"`
	Date                  time.Time      `bson:"date"`
	Details               map[string]any `bson:"details,omitempty"`
}

type qrModel struct {
	ID        string    `bson:"_id"`
	PartnerID string    `bson:"partner_id"`
	CreatedAt time.Time `bson:"created_at"`
}

func toPartnerModel(p *subscription.Partner) partnerModel {
	return partnerModel{
		ID:           p.ID,
		Country:      p.Country,
		FeatureFlags: p.FeatureFlags,
		Subscription: toSubscriptionModel(p.Subscription),
		CreatedAt:    p.CreatedAt.UTC(),
		UpdatedAt:    p.UpdatedAt.UTC(),
	}
}

func toSubscriptionModel(s *subscription.Subscription) *subscriptionModel {
	if s == nil {
		return nil
	}
	return &subscriptionModel{
		PlanID:                s.PlanID,
		PlanVersion:           s.PlanVersion,
		Status:                string(s.Status),
		StartDate:             s.StartDate.UTC(),
		ExpiryDate:            optionalTime(s.ExpiryDate),
		GatewaySubscriptionID: s.GatewaySubscriptionID,
		GatewayPaymentID:      s.GatewayPaymentID,
		IsFreePlanUsed:        s.IsFreePlanUsed,
		Usage: usageModel{
			ScansCycle: s.Usage.ScansCycle,
			LastReset:  optionalTime(s.Usage.LastReset),
		},
	}
}

func fromPartnerModel(m *partnerModel) *subscription.Partner {
	p := &subscription.Partner{
		ID:           m.ID,
		Country:      m.Country,
		FeatureFlags: m.FeatureFlags,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
	if s := m.Subscription; s != nil {
		p.Subscription = &subscription.Subscription{
			PlanID:                s.PlanID,
			PlanVersion:           s.PlanVersion,
			Status:                subscription.Status(s.Status),
			StartDate:             s.StartDate.UTC(),
			ExpiryDate:            valueTime(s.ExpiryDate),
			GatewaySubscriptionID: s.GatewaySubscriptionID,
			GatewayPaymentID:      s.GatewayPaymentID,
			IsFreePlanUsed:        s.IsFreePlanUsed,
			Usage:                 fromUsageModel(s.Usage),
		}
	}
	return p
}

func fromUsageModel(u usageModel) subscription.Usage {
	return subscription.Usage{ScansCycle: u.ScansCycle, LastReset: valueTime(u.LastReset)}
}

func toPaymentModel(r subscription.PaymentRecord) paymentModel {
	id := r.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return paymentModel{
		ID:                    id.String(),
		PartnerID:             r.PartnerID,
		GatewayPaymentID:      r.GatewayPaymentID,
		GatewaySubscriptionID: r.GatewaySubscriptionID,
		Amount:                r.Amount.Amount,
		Currency:              r.Amount.Currency,
		Date:                  r.Date.UTC(),
		Details:               r.Details,
	}
}

func fromPaymentModel(m *paymentModel) subscription.PaymentRecord {
	id, _ := uuid.Parse(m.ID)
	return subscription.PaymentRecord{
		ID:                    id,
		PartnerID:             m.PartnerID,
		GatewayPaymentID:      m.GatewayPaymentID,
		GatewaySubscriptionID: m.GatewaySubscriptionID,
		Amount:                plan.Money{Amount: m.Amount, Currency: m.Currency},
		Date:                  m.Date.UTC(),
		Details:               m.Details,
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

func valueTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
