package billing

import (
	"context"
	"errors"

	"github.com/dmitrymomot/menukit/pkg/logger"
	"github.com/dmitrymomot/menukit/pkg/plan"
	"github.com/dmitrymomot/menukit/pkg/razorpay"
)

// SubscriptionCreator opens gateway subscriptions. *razorpay.Client implements it.
type SubscriptionCreator interface {
	CreateSubscription(ctx context.Context, req razorpay.CreateSubscriptionRequest) (*razorpay.CreatedSubscription, error)
}

// CreateIntentRequest starts a checkout.
type CreateIntentRequest struct {
	PlanID        string `json:"plan_id" validate:"required_without=GatewayPlanID"`
	GatewayPlanID string `json:"gateway_plan_id"`
	PartnerID     string `json:"partner_id" validate:"required"`
	StoreName     string `json:"store_name"`
}

// IntentResult carries what the client needs to open the gateway checkout.
type IntentResult struct {
	Success        bool   `json:"success"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	KeyID          string `json:"key_id,omitempty"`
	Error          string `json:"error,omitempty"`
	Err            error  `json:"-"`
}

// Checkout creates pending gateway subscriptions. It never writes local state.
type Checkout struct {
	keyID   string
	catalog plan.Catalog
	gateway SubscriptionCreator
	settings
}

// NewCheckout creates a Checkout. keyID is the public gateway key returned to clients.
// Panics if a required dependency is nil.
func NewCheckout(keyID string, catalog plan.Catalog, gateway SubscriptionCreator, opts ...Option) *Checkout {
	if catalog == nil {
		panic("billing: plan catalog is required")
	}
	if gateway == nil {
		panic("billing: subscription creator is required")
	}
	return &Checkout{
		keyID:    keyID,
		catalog:  catalog,
		gateway:  gateway,
		settings: newSettings(opts),
	}
}

// CreateIntent resolves the gateway plan id and opens a gateway subscription.
// An explicit gateway plan id wins over the catalog mapping of PlanID.
func (c *Checkout) CreateIntent(ctx context.Context, req CreateIntentRequest) IntentResult {
	log := c.logger.With(
		logger.Component("billing.checkout"),
		logger.PartnerID(req.PartnerID),
		logger.PlanID(req.PlanID),
	)

	if req.PartnerID == "" {
		return intentFailure(ErrValidation, "missing partner id")
	}

	internalID, gatewayID := req.PlanID, req.GatewayPlanID
	if gatewayID == "" && internalID != "" {
		if p, err := c.catalog.Get(internalID); err == nil {
			gatewayID = c.catalog.GatewayPlanID(p)
		}
	}
	if gatewayID == "" {
		return intentFailure(ErrValidation, "plan has no gateway plan id")
	}
	if internalID == "" {
		if p, ok := c.catalog.ByGatewayID(gatewayID); ok {
			internalID = p.ID
		}
	}

	created, err := c.gateway.CreateSubscription(ctx, razorpay.CreateSubscriptionRequest{
		GatewayPlanID:  gatewayID,
		PartnerID:      req.PartnerID,
		InternalPlanID: internalID,
		StoreName:      req.StoreName,
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to create gateway subscription",
			logger.GatewayPlanID(gatewayID),
			logger.Error(err),
		)
		return intentFailure(errors.Join(ErrInternal, err), "payment gateway unavailable")
	}

	log.InfoContext(ctx, "gateway subscription created", logger.SubscriptionID(created.ID))
	return IntentResult{Success: true, SubscriptionID: created.ID, KeyID: c.keyID}
}

func intentFailure(err error, msg string) IntentResult {
	return IntentResult{Error: msg, Err: err}
}
