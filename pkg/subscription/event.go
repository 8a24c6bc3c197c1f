package subscription

import (
	"time"

	"github.com/dmitrymomot/menukit/pkg/plan"
)

// EventType is the gateway name of a subscription lifecycle event.
type EventType string

const (
	EventCharged   EventType = "subscription.charged"
	EventPending   EventType = "subscription.pending"
	EventHalted    EventType = "subscription.halted"
	EventCancelled EventType = "subscription.cancelled"
	EventPaused    EventType = "subscription.paused"
	EventResumed   EventType = "subscription.resumed"
)

// Event is a decoded gateway webhook. The set of implementations is closed:
// Charged, Pending, Halted, Cancelled, Paused, Resumed and Unhandled.
type Event interface {
	Type() EventType
	EventMeta() Meta
	event()
}

// Meta is the subscription entity data every event carries.
type Meta struct {
	PartnerID             string
	GatewaySubscriptionID string
	GatewayPlanID         string
	InternalPlanID        string
	StoreName             string
	PeriodEnd             time.Time // zero when the gateway did not report one
}

func (m Meta) EventMeta() Meta { return m }
func (Meta) event()            {}

// Payment is the optional payment entity attached to a charge.
type Payment struct {
	ID     string
	Amount plan.Money
}

type (
	// Charged reports a successful recurring charge.
	Charged struct {
		Meta
		Payment *Payment
	}

	// Pending reports a failed charge that the gateway will retry.
	Pending struct{ Meta }

	// Halted reports that the gateway gave up retrying.
	Halted struct{ Meta }

	// Cancelled reports a cancellation.
	Cancelled struct{ Meta }

	// Paused reports a pause.
	Paused struct{ Meta }

	// Resumed reports a resume after a pause.
	Resumed struct{ Meta }

	// Unhandled is any event name this package does not act on.
	Unhandled struct {
		Meta
		Name string
	}
)

func (Charged) Type() EventType     { return EventCharged }
func (Pending) Type() EventType     { return EventPending }
func (Halted) Type() EventType      { return EventHalted }
func (Cancelled) Type() EventType   { return EventCancelled }
func (Paused) Type() EventType      { return EventPaused }
func (Resumed) Type() EventType     { return EventResumed }
func (e Unhandled) Type() EventType { return EventType(e.Name) }

// NewEvent builds the variant for a gateway event name. Unknown names produce Unhandled.
func NewEvent(name string, meta Meta, payment *Payment) Event {
	switch EventType(name) {
	case EventCharged:
		return Charged{Meta: meta, Payment: payment}
	case EventPending:
		return Pending{Meta: meta}
	case EventHalted:
		return Halted{Meta: meta}
	case EventCancelled:
		return Cancelled{Meta: meta}
	case EventPaused:
		return Paused{Meta: meta}
	case EventResumed:
		return Resumed{Meta: meta}
	default:
		return Unhandled{Meta: meta, Name: name}
	}
}
