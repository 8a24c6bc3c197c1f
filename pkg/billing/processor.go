package billing

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrymomot/menukit/pkg/logger"
	"github.com/dmitrymomot/menukit/pkg/razorpay"
	"github.com/dmitrymomot/menukit/pkg/subscription"
)

const statusOK = "ok"

// WebhookResult is the HTTP-facing outcome of a webhook delivery.
type WebhookResult struct {
	StatusCode int                  `json:"-"`
	Status     string               `json:"status,omitempty"`
	Error      string               `json:"error,omitempty"`
	Outcome    subscription.Outcome `json:"-"`
	Err        error                `json:"-"`
}

// WebhookProcessor handles signed Razorpay subscription webhooks.
type WebhookProcessor struct {
	secret  string
	service subscription.Service
	settings
}

// NewWebhookProcessor creates a processor. An empty secret rejects every delivery.
// Panics if svc is nil.
func NewWebhookProcessor(secret string, svc subscription.Service, opts ...Option) *WebhookProcessor {
	if svc == nil {
		panic("billing: subscription service is required")
	}
	return &WebhookProcessor{
		secret:   secret,
		service:  svc,
		settings: newSettings(opts),
	}
}

// Handle verifies the raw body against signature, decodes it and applies the
// event. The body must be the exact bytes received.
func (p *WebhookProcessor) Handle(ctx context.Context, body []byte, signature string) WebhookResult {
	log := p.logger.With(logger.Component("billing.webhook"))

	if err := razorpay.VerifyWebhook(p.secret, body, signature); err != nil {
		log.WarnContext(ctx, "webhook rejected", logger.Error(err))
		return webhookFailure(errors.Join(ErrAuthentication, err), "invalid signature")
	}

	ev, err := razorpay.ParseEvent(body)
	if err != nil {
		log.WarnContext(ctx, "malformed webhook payload", logger.Error(err))
		return webhookFailure(errors.Join(ErrValidation, err), "malformed payload")
	}

	meta := ev.EventMeta()
	log = log.With(
		logger.EventType(string(ev.Type())),
		logger.PartnerID(meta.PartnerID),
		logger.GatewayPlanID(meta.GatewayPlanID),
		logger.SubscriptionID(meta.GatewaySubscriptionID),
	)

	outcome, err := p.service.Apply(ctx, ev)
	switch {
	case err == nil:
	case errors.Is(err, subscription.ErrMissingPartnerID):
		log.WarnContext(ctx, "webhook without partner id", logger.Error(err))
		return webhookFailure(errors.Join(ErrValidation, err), "missing partner id")
	case errors.Is(err, subscription.ErrPartnerNotFound), errors.Is(err, subscription.ErrSubscriptionNotFound):
		log.WarnContext(ctx, "webhook for unknown partner", logger.Error(err))
		return webhookFailure(errors.Join(ErrValidation, ErrNotFound, err), "partner not found")
	default:
		log.ErrorContext(ctx, "failed to apply webhook", logger.Error(err))
		res := webhookFailure(errors.Join(ErrInternal, err), "internal error")
		res.Outcome = outcome
		return res
	}

	res := WebhookResult{StatusCode: http.StatusOK, Status: statusOK, Outcome: outcome}
	switch outcome {
	case subscription.OutcomeUnknownPlan:
		res.Err = ErrUnknownEntity
		log.InfoContext(ctx, "webhook for foreign plan acknowledged")
	case subscription.OutcomeIgnored:
		if _, ok := ev.(subscription.Unhandled); ok {
			res.Err = ErrUnknownEntity
		}
		log.DebugContext(ctx, "webhook acknowledged without change")
	default:
		log.InfoContext(ctx, "webhook applied", logger.Outcome(string(outcome)))
	}
	return res
}

func webhookFailure(err error, msg string) WebhookResult {
	return WebhookResult{StatusCode: StatusCode(err), Error: msg, Err: err}
}
