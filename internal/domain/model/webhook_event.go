package model

import "time"

type WebhookEventStatus string

const (
	WebhookEventStatusPending   WebhookEventStatus = "pending"
	WebhookEventStatusProcessed WebhookEventStatus = "processed"
	WebhookEventStatusFailed    WebhookEventStatus = "failed"
	WebhookEventStatusIgnored   WebhookEventStatus = "ignored"
)

// EventKind is the closed set of webhook event types this system handles.
// Incoming provider type strings map onto it once, at the edge; everything
// downstream switches over the enum so the unknown arm is an explicit case.
type EventKind int

const (
	EventKindUnknown EventKind = iota
	EventKindCheckoutSessionCompleted
	EventKindPaymentIntentSucceeded
	EventKindPaymentIntentFailed
	EventKindChargeDisputeCreated
)

// EventKindFromType maps a provider event type string to an EventKind.
func EventKindFromType(t string) EventKind {
	switch t {
	case "checkout.session.completed":
		return EventKindCheckoutSessionCompleted
	case "payment_intent.succeeded":
		return EventKindPaymentIntentSucceeded
	case "payment_intent.payment_failed":
		return EventKindPaymentIntentFailed
	case "charge.dispute.created":
		return EventKindChargeDisputeCreated
	default:
		return EventKindUnknown
	}
}

func (k EventKind) String() string {
	switch k {
	case EventKindCheckoutSessionCompleted:
		return "checkout.session.completed"
	case EventKindPaymentIntentSucceeded:
		return "payment_intent.succeeded"
	case EventKindPaymentIntentFailed:
		return "payment_intent.payment_failed"
	case EventKindChargeDisputeCreated:
		return "charge.dispute.created"
	default:
		return "unknown"
	}
}

// WebhookEvent records one inbound provider callback. EventID is the
// provider-assigned id and is unique in the store; the unique index is the
// mutual-exclusion gate that makes redelivery a no-op.
type WebhookEvent struct {
	ID           string // UUID
	Provider     string // "stripe"
	EventID      string // provider event id, unique
	EventType    string // raw provider type string
	Status       WebhookEventStatus
	Payload      []byte // raw request body
	ErrorMessage string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}

// Kind returns the closed-enum kind for this event.
func (e *WebhookEvent) Kind() EventKind { return EventKindFromType(e.EventType) }
