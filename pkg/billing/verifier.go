package billing

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/menukit/pkg/logger"
	"github.com/dmitrymomot/menukit/pkg/plan"
	"github.com/dmitrymomot/menukit/pkg/razorpay"
	"github.com/dmitrymomot/menukit/pkg/subscription"
)

// VerifyRequest is the checkout callback posted by the client after payment.
type VerifyRequest struct {
	PaymentID      string `json:"payment_id" validate:"required"`
	SubscriptionID string `json:"subscription_id" validate:"required"`
	Signature      string `json:"signature" validate:"required"`
	PartnerID      string `json:"user_id" validate:"required"`
	PlanID         string `json:"plan_id" validate:"required"`
}

// VerifyResult reports whether the payment was accepted. Err may carry a
// non-fatal ErrPartialWrite while Success is true.
type VerifyResult struct {
	Success      bool                       `json:"success"`
	Error        string                     `json:"error,omitempty"`
	Subscription *subscription.Subscription `json:"-"`
	Err          error                      `json:"-"`
}

// PaymentVerifier confirms checkout payments and activates the paid plan.
type PaymentVerifier struct {
	secret  string
	catalog plan.Catalog
	service subscription.Service
	ledger  subscription.Ledger
	settings
}

// NewPaymentVerifier creates a verifier. secret is the gateway API key secret.
// Panics if a required dependency is nil.
func NewPaymentVerifier(secret string, catalog plan.Catalog, svc subscription.Service, ledger subscription.Ledger, opts ...Option) *PaymentVerifier {
	if catalog == nil {
		panic("billing: plan catalog is required")
	}
	if svc == nil {
		panic("billing: subscription service is required")
	}
	if ledger == nil {
		panic("billing: ledger is required")
	}
	return &PaymentVerifier{
		secret:   secret,
		catalog:  catalog,
		service:  svc,
		ledger:   ledger,
		settings: newSettings(opts),
	}
}

// Verify checks the payment signature, replaces the partner's subscription with
// a fresh one for the plan and records the payment. The ledger write is separate
// from the subscription write; its failure is logged and not compensated.
func (v *PaymentVerifier) Verify(ctx context.Context, req VerifyRequest) VerifyResult {
	log := v.logger.With(
		logger.Component("billing.verify"),
		logger.PartnerID(req.PartnerID),
		logger.PlanID(req.PlanID),
		logger.PaymentID(req.PaymentID),
	)

	if strings.TrimSpace(req.PaymentID) == "" || strings.TrimSpace(req.SubscriptionID) == "" ||
		strings.TrimSpace(req.PartnerID) == "" || strings.TrimSpace(req.PlanID) == "" {
		return verifyFailure(ErrValidation, "missing required fields")
	}

	if err := razorpay.VerifyPayment(v.secret, req.PaymentID, req.SubscriptionID, req.Signature); err != nil {
		log.WarnContext(ctx, "payment signature rejected", logger.Error(err))
		return verifyFailure(errors.Join(ErrAuthentication, err), "invalid payment signature")
	}

	p, err := v.catalog.Get(req.PlanID)
	if err != nil {
		log.WarnContext(ctx, "verified payment for unknown plan", logger.Error(err))
		return verifyFailure(errors.Join(ErrValidation, err), "unknown plan")
	}

	sub, err := v.service.Activate(ctx, subscription.ActivateParams{
		PartnerID:             req.PartnerID,
		PlanID:                p.ID,
		GatewaySubscriptionID: req.SubscriptionID,
		GatewayPaymentID:      req.PaymentID,
	})
	if err != nil {
		if errors.Is(err, subscription.ErrPartnerNotFound) {
			return verifyFailure(errors.Join(ErrNotFound, err), "partner not found")
		}
		log.ErrorContext(ctx, "failed to activate subscription", logger.Error(err))
		return verifyFailure(errors.Join(ErrInternal, err), "could not activate subscription")
	}

	res := VerifyResult{Success: true, Subscription: sub}

	err = v.ledger.AppendPayment(ctx, subscription.PaymentRecord{
		ID:                    uuid.New(),
		PartnerID:             req.PartnerID,
		GatewayPaymentID:      req.PaymentID,
		GatewaySubscriptionID: req.SubscriptionID,
		Amount:                p.Price,
		Date:                  v.now().UTC(),
		Details: map[string]any{
			"source":      "checkout",
			"plan_id":     p.ID,
			"plan_name":   p.Name,
			"period_days": p.Period(),
		},
	})
	switch {
	case errors.Is(err, subscription.ErrDuplicatePayment):
		log.InfoContext(ctx, "payment already recorded")
	case err != nil:
		res.Err = errors.Join(ErrPartialWrite, err)
		log.ErrorContext(ctx, "payment not recorded after activation",
			logger.Error(res.Err),
			logger.SubscriptionID(req.SubscriptionID),
		)
	default:
		log.InfoContext(ctx, "payment verified")
	}

	return res
}

func verifyFailure(err error, msg string) VerifyResult {
	return VerifyResult{Error: msg, Err: err}
}
