package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"    // local record created; no provider session yet
	PaymentStatusProcessing PaymentStatus = "processing" // checkout session open; awaiting webhook/poll
	PaymentStatusSucceeded  PaymentStatus = "succeeded"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
	PaymentStatusRefunded   PaymentStatus = "refunded" // fully refunded after success
)

type PaymentMethod string

const (
	PaymentMethodStripe PaymentMethod = "stripe"
	PaymentMethodManual PaymentMethod = "manual"
)

// Payment records one purchase attempt and its lifecycle.
// Amount is a fixed-point decimal in major units; conversion to integer
// minor units happens only at the gateway adapter boundary.
type Payment struct {
	ID             string // UUID
	UserID         string // UUID
	SubscriptionID *string
	Amount         decimal.Decimal
	Currency       string // ISO 4217, e.g. "USD"
	Status         PaymentStatus
	Method         PaymentMethod
	Description    string

	// Provider correlation identifiers
	ProviderIntentID   string
	ProviderSessionID  string
	ProviderCustomerID string

	Meta map[string]any // JSONB in DB

	CreatedAt   time.Time
	UpdatedAt   time.Time
	ProcessedAt *time.Time // set iff status is succeeded or failed
}

// IsPending reports whether the payment still awaits a terminal outcome.
func (p *Payment) IsPending() bool {
	return p.Status == PaymentStatusPending || p.Status == PaymentStatusProcessing
}

// CanBeRefunded reports whether a refund may be submitted for this payment.
func (p *Payment) CanBeRefunded() bool {
	return p.Status == PaymentStatusSucceeded && p.Method == PaymentMethodStripe
}

// PaymentAttempt is an append-only log row per gateway-side charge attempt.
// Rows are immutable once written.
type PaymentAttempt struct {
	ID               string // ULID, sortable by creation time
	PaymentID        string
	ProviderChargeID string
	Status           string
	ErrorMessage     string
	Meta             map[string]any
	CreatedAt        time.Time
}

type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusSucceeded RefundStatus = "succeeded"
	RefundStatusFailed    RefundStatus = "failed"
	RefundStatusCancelled RefundStatus = "cancelled"
)

// Refund is tied to exactly one Payment. The amount bound
// (amount <= payment.amount - sum of prior succeeded refunds) is enforced
// by the use case before submission to the gateway.
type Refund struct {
	ID               string // UUID
	PaymentID        string
	Amount           decimal.Decimal
	Reason           string
	Status           RefundStatus
	ProviderRefundID string
	CreatedBy        string // admin user id
	CreatedAt        time.Time
	ProcessedAt      *time.Time
}

// IsPartial reports whether this refund covers less than the full payment.
func (r *Refund) IsPartial(p *Payment) bool {
	return r.Amount.LessThan(p.Amount)
}
