package adapter

import (
	"context"

	"github.com/shopspring/decimal"

	"news-site-backend/internal/domain/model"
)

// CheckoutSession is the hosted-checkout handle returned by the provider.
type CheckoutSession struct {
	SessionID   string
	CheckoutURL string
}

// SessionInfo is the provider-side view of a checkout session, used by
// client-initiated status polling as a fallback to webhook delivery.
type SessionInfo struct {
	Status     string // "paid", "unpaid", "no_payment_required"
	IntentID   string
	CustomerID string
	Metadata   map[string]string
}

// PaymentGateway wraps the external payment provider. Calls are synchronous
// blocking I/O with no internal retry; callers own retry policy.
type PaymentGateway interface {
	Name() string
	// CreateCustomer registers the user with the provider and returns the
	// provider customer id.
	CreateCustomer(ctx context.Context, user *model.User) (string, error)
	// CreateCheckoutSession opens a hosted checkout session for the payment.
	// The payment's id travels in session metadata for webhook correlation.
	CreateCheckoutSession(ctx context.Context, p *model.Payment, planName, successURL, cancelURL string) (*CheckoutSession, error)
	// Refund submits a refund scoped to the payment's provider intent id.
	// amount nil means full refund. Returns the provider refund id and
	// whether the gateway reports immediate success.
	Refund(ctx context.Context, p *model.Payment, amount *decimal.Decimal, reason string) (string, bool, error)
	// RetrieveSession fetches provider-side session state; returns
	// domain.ErrNotFound when the session does not exist.
	RetrieveSession(ctx context.Context, sessionID string) (*SessionInfo, error)
}
