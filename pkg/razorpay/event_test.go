package razorpay_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/menukit/pkg/razorpay"
	"github.com/dmitrymomot/menukit/pkg/subscription"
)

const chargedBody = `{
  "entity": "event",
  "event": "subscription.charged",
  "payload": {
    "subscription": {
      "entity": {
        "id": "sub_123",
        "plan_id": "plan_gold",
        "status": "active",
        "current_end": 1735689600,
        "notes": {"partner_id": " p-1 ", "internal_plan_id": "gold", "store_name": "Cafe"}
      }
    },
    "payment": {
      "entity": {"id": "pay_9", "amount": 99900, "currency": "inr"}
    }
  }
}`

func TestParseEvent_Charged(t *testing.T) {
	t.Parallel()

	ev, err := razorpay.ParseEvent([]byte(chargedBody))
	require.NoError(t, err)

	charged, ok := ev.(subscription.Charged)
	require.True(t, ok, "got %T", ev)

	assert.Equal(t, subscription.EventCharged, charged.Type())
	assert.Equal(t, "p-1", charged.PartnerID)
	assert.Equal(t, "sub_123", charged.GatewaySubscriptionID)
	assert.Equal(t, "plan_gold", charged.GatewayPlanID)
	assert.Equal(t, "gold", charged.InternalPlanID)
	assert.Equal(t, "Cafe", charged.StoreName)
	assert.Equal(t, time.Unix(1735689600, 0).UTC(), charged.PeriodEnd)

	require.NotNil(t, charged.Payment)
	assert.Equal(t, "pay_9", charged.Payment.ID)
	assert.Equal(t, int64(99900), charged.Payment.Amount.Amount)
	assert.Equal(t, "INR", charged.Payment.Amount.Currency)
}

func TestParseEvent_Variants(t *testing.T) {
	t.Parallel()

	body := func(event string) []byte {
		return []byte(`{"event":"` + event + `","payload":{"subscription":{"entity":{"id":"sub_1","plan_id":"plan_x","current_end":null,"notes":[]}}}}`)
	}

	tests := []struct {
		event string
		want  subscription.Event
	}{
		{"subscription.pending", subscription.Pending{}},
		{"subscription.halted", subscription.Halted{}},
		{"subscription.cancelled", subscription.Cancelled{}},
		{"subscription.paused", subscription.Paused{}},
		{"subscription.resumed", subscription.Resumed{}},
		{"subscription.activated", subscription.Unhandled{}},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			t.Parallel()

			ev, err := razorpay.ParseEvent(body(tt.event))
			require.NoError(t, err)
			assert.IsType(t, tt.want, ev)
			assert.Equal(t, subscription.EventType(tt.event), ev.Type())

			meta := ev.EventMeta()
			assert.Empty(t, meta.PartnerID)
			assert.True(t, meta.PeriodEnd.IsZero())
			assert.Equal(t, "sub_1", meta.GatewaySubscriptionID)
		})
	}
}

func TestParseEvent_ChargedWithoutPayment(t *testing.T) {
	t.Parallel()

	ev, err := razorpay.ParseEvent([]byte(`{"event":"subscription.charged","payload":{"subscription":{"entity":{"id":"sub_1","plan_id":"plan_x","notes":{"partner_id":"p"}}}}}`))
	require.NoError(t, err)

	charged, ok := ev.(subscription.Charged)
	require.True(t, ok)
	assert.Nil(t, charged.Payment)
	assert.Equal(t, "p", charged.PartnerID)
}

func TestParseEvent_WithoutSubscriptionEntity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"payment captured", `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","amount":100}}}}`},
		{"order paid", `{"event":"order.paid","payload":{"order":{"entity":{"id":"order_1"}}}}`},
		{"subscription event with empty payload", `{"event":"subscription.charged","payload":{}}`},
		{"no payload", `{"event":"refund.created"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ev, err := razorpay.ParseEvent([]byte(tt.body))
			require.NoError(t, err)
			require.IsType(t, subscription.Unhandled{}, ev)
			assert.Empty(t, ev.EventMeta().GatewayPlanID)
			assert.Empty(t, ev.EventMeta().PartnerID)
		})
	}
}

func TestParseEvent_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want error
	}{
		{"not json", `{`, razorpay.ErrMalformedPayload},
		{"missing event", `{"payload":{"subscription":{"entity":{}}}}`, razorpay.ErrMalformedPayload},
		{"bad notes", `{"event":"subscription.charged","payload":{"subscription":{"entity":{"notes":"x"}}}}`, razorpay.ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := razorpay.ParseEvent([]byte(tt.body))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
