package razorpay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/menukit/pkg/plan"
	"github.com/dmitrymomot/menukit/pkg/subscription"
)

const defaultCurrency = "INR"

type webhookBody struct {
	Event   string `json:"event"`
	Payload struct {
		Subscription *struct {
			Entity subscriptionEntity `json:"entity"`
		} `json:"subscription"`
		Payment *struct {
			Entity paymentEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type subscriptionEntity struct {
	ID         string `json:"id"`
	PlanID     string `json:"plan_id"`
	Status     string `json:"status"`
	CurrentEnd *int64 `json:"current_end"`
	Notes      notes  `json:"notes"`
}

type paymentEntity struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// notes decodes the gateway's notes object, which is an empty array when unset.
type notes struct {
	PartnerID      string `json:"partner_id"`
	InternalPlanID string `json:"internal_plan_id"`
	StoreName      string `json:"store_name"`
}

func (n *notes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == '[' || bytes.Equal(data, []byte("null")) {
		*n = notes{}
		return nil
	}
	type plain notes
	return json.Unmarshal(data, (*plain)(n))
}

// ParseEvent decodes a webhook body into a subscription event. Event names this
// package does not act on, and bodies without a subscription entity, decode to
// subscription.Unhandled. Only non-JSON bodies and missing event names are errors.
func ParseEvent(body []byte) (subscription.Event, error) {
	var wb webhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return nil, errors.Join(ErrMalformedPayload, err)
	}
	if strings.TrimSpace(wb.Event) == "" {
		return nil, fmt.Errorf("%w: event name is missing", ErrMalformedPayload)
	}
	// Payment, order and refund events on a shared account carry no subscription entity.
	if wb.Payload.Subscription == nil {
		return subscription.Unhandled{Name: wb.Event}, nil
	}

	ent := wb.Payload.Subscription.Entity
	meta := subscription.Meta{
		PartnerID:             strings.TrimSpace(ent.Notes.PartnerID),
		GatewaySubscriptionID: ent.ID,
		GatewayPlanID:         ent.PlanID,
		InternalPlanID:        ent.Notes.InternalPlanID,
		StoreName:             ent.Notes.StoreName,
	}
	if ent.CurrentEnd != nil && *ent.CurrentEnd > 0 {
		meta.PeriodEnd = time.Unix(*ent.CurrentEnd, 0).UTC()
	}

	var payment *subscription.Payment
	if p := wb.Payload.Payment; p != nil && p.Entity.ID != "" {
		currency := strings.ToUpper(p.Entity.Currency)
		if currency == "" {
			currency = defaultCurrency
		}
		payment = &subscription.Payment{
			ID:     p.Entity.ID,
			Amount: plan.Money{Amount: p.Entity.Amount, Currency: currency},
		}
	}

	return subscription.NewEvent(wb.Event, meta, payment), nil
}
