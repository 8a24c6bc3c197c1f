package logger

import (
	"log/slog"
	"time"
)

// optional drops empty values.
func optional(key, value string) slog.Attr {
	if value == "" {
		return slog.Attr{}
	}
	return slog.String(key, value)
}

// Error is empty for a nil error.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func Component(name string) slog.Attr { return slog.String("component", name) }

func PartnerID(id string) slog.Attr      { return optional("partner_id", id) }
func PlanID(id string) slog.Attr         { return optional("plan_id", id) }
func GatewayPlanID(id string) slog.Attr  { return optional("gateway_plan_id", id) }
func SubscriptionID(id string) slog.Attr { return optional("subscription_id", id) }
func PaymentID(id string) slog.Attr      { return optional("payment_id", id) }
func QRID(id string) slog.Attr           { return optional("qr_id", id) }

// EventType is the gateway webhook event name.
func EventType(name string) slog.Attr { return slog.String("event_type", name) }

// Outcome is what a handler did with its input, e.g. "applied" or "ignored".
func Outcome(outcome string) slog.Attr { return slog.String("outcome", outcome) }

// Duration is logged in milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64("duration_ms", float64(d.Microseconds())/1000)
}
