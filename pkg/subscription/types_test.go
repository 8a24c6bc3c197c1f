package subscription_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/menukit/pkg/subscription"
)

func TestSubscription_EffectiveStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		sub        subscription.Subscription
		want       subscription.Status
		accessible bool
	}{
		{
			name:       "active within period",
			sub:        subscription.Subscription{Status: subscription.StatusActive, ExpiryDate: now.Add(time.Hour)},
			want:       subscription.StatusActive,
			accessible: true,
		},
		{
			name:       "active past expiry reads expired",
			sub:        subscription.Subscription{Status: subscription.StatusActive, ExpiryDate: now.Add(-time.Second)},
			want:       subscription.StatusExpired,
			accessible: false,
		},
		{
			name:       "halted with future expiry stays halted",
			sub:        subscription.Subscription{Status: subscription.StatusHalted, ExpiryDate: now.AddDate(0, 1, 0)},
			want:       subscription.StatusHalted,
			accessible: false,
		},
		{
			name:       "expiry equal to now is not expired",
			sub:        subscription.Subscription{Status: subscription.StatusActive, ExpiryDate: now},
			want:       subscription.StatusActive,
			accessible: true,
		},
		{
			name:       "no expiry never expires",
			sub:        subscription.Subscription{Status: subscription.StatusPaused},
			want:       subscription.StatusPaused,
			accessible: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.sub.EffectiveStatus(now))
			assert.Equal(t, tt.accessible, tt.sub.IsAccessible(now))
		})
	}
}

func TestStatus_Valid(t *testing.T) {
	t.Parallel()

	for _, s := range []subscription.Status{
		subscription.StatusActive,
		subscription.StatusHalted,
		subscription.StatusCancelled,
		subscription.StatusPaused,
	} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, subscription.StatusExpired.Valid())
	assert.False(t, subscription.Status("trialing").Valid())
}

func TestNewEvent(t *testing.T) {
	t.Parallel()

	meta := subscription.Meta{PartnerID: "p1", GatewayPlanID: "plan_1"}
	pay := &subscription.Payment{ID: "pay_1"}

	tests := []struct {
		name string
		want subscription.Event
	}{
		{name: "subscription.charged", want: subscription.Charged{Meta: meta, Payment: pay}},
		{name: "subscription.pending", want: subscription.Pending{Meta: meta}},
		{name: "subscription.halted", want: subscription.Halted{Meta: meta}},
		{name: "subscription.cancelled", want: subscription.Cancelled{Meta: meta}},
		{name: "subscription.paused", want: subscription.Paused{Meta: meta}},
		{name: "subscription.resumed", want: subscription.Resumed{Meta: meta}},
		{name: "subscription.activated", want: subscription.Unhandled{Meta: meta, Name: "subscription.activated"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ev := subscription.NewEvent(tt.name, meta, pay)
			assert.Equal(t, tt.want, ev)
			assert.Equal(t, subscription.EventType(tt.name), ev.Type())
			assert.Equal(t, meta, ev.EventMeta())
		})
	}
}
