package payment

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/customer"
	"github.com/stripe/stripe-go/v83/refund"
	"github.com/stripe/stripe-go/v83/webhook"

	"news-site-backend/internal/config"
	"news-site-backend/internal/domain"
	"news-site-backend/internal/domain/model"
	"news-site-backend/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*StripeGateway)(nil)

// StripeGateway implements the payment gateway port against Stripe's hosted
// checkout. The SDK key is process-global; one gateway instance per process.
type StripeGateway struct {
	webhookSecret string
	log           *zerolog.Logger
}

func NewStripeGateway(cfg *config.StripeConfig, logger *zerolog.Logger) *StripeGateway {
	stripe.Key = cfg.SecretKey
	lg := logger.With().Str("component", "stripe_gateway").Logger()
	return &StripeGateway{webhookSecret: cfg.WebhookSecret, log: &lg}
}

func (g *StripeGateway) Name() string { return "stripe" }

// minorUnits converts a major-unit decimal amount to the integer minor units
// Stripe expects. Zero-decimal currencies pass through unscaled.
func minorUnits(amount decimal.Decimal, currency string) int64 {
	if isZeroDecimal(currency) {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func isZeroDecimal(currency string) bool {
	switch strings.ToUpper(currency) {
	case "JPY", "KRW", "VND", "CLP", "ISK", "UGX":
		return true
	}
	return false
}

func (g *StripeGateway) CreateCustomer(ctx context.Context, user *model.User) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(user.Email),
		Name:  stripe.String(user.DisplayName()),
	}
	params.Context = ctx
	params.AddMetadata("user_id", user.ID)

	c, err := customer.New(params)
	if err != nil {
		g.log.Error().Err(err).Str("user_id", user.ID).Msg("stripe create customer failed")
		return "", domain.ErrGatewayUnavailable
	}
	return c.ID, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p *model.Payment, planName, successURL, cancelURL string) (*adapter.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(p.Currency)),
					UnitAmount: stripe.Int64(minorUnits(p.Amount, p.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(planName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	if p.ProviderCustomerID != "" {
		params.Customer = stripe.String(p.ProviderCustomerID)
	}
	// payment_id rides on both the session and the resulting intent so any
	// webhook shape can be correlated back to our row.
	params.AddMetadata("payment_id", p.ID)
	params.AddMetadata("user_id", p.UserID)
	params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
		Metadata: map[string]string{"payment_id": p.ID, "user_id": p.UserID},
	}

	s, err := session.New(params)
	if err != nil {
		g.log.Error().Err(err).Str("payment_id", p.ID).Msg("stripe create checkout session failed")
		return nil, domain.ErrGatewayUnavailable
	}
	return &adapter.CheckoutSession{SessionID: s.ID, CheckoutURL: s.URL}, nil
}

func (g *StripeGateway) Refund(ctx context.Context, p *model.Payment, amount *decimal.Decimal, reason string) (string, bool, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(p.ProviderIntentID),
	}
	params.Context = ctx
	if amount != nil {
		params.Amount = stripe.Int64(minorUnits(*amount, p.Currency))
	}
	switch reason {
	case "duplicate", "fraudulent", "requested_by_customer":
		params.Reason = stripe.String(reason)
	}
	params.AddMetadata("payment_id", p.ID)

	r, err := refund.New(params)
	if err != nil {
		if se, ok := err.(*stripe.Error); ok {
			g.log.Error().Err(err).Str("payment_id", p.ID).Str("code", string(se.Code)).Msg("stripe refund failed")
			if se.Code == stripe.ErrorCodeChargeAlreadyRefunded {
				return "", false, domain.ErrNotRefundable
			}
		}
		return "", false, domain.ErrGatewayUnavailable
	}
	return r.ID, r.Status == stripe.RefundStatusSucceeded, nil
}

func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*adapter.SessionInfo, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	s, err := session.Get(sessionID, params)
	if err != nil {
		if se, ok := err.(*stripe.Error); ok && se.Code == stripe.ErrorCodeResourceMissing {
			return nil, domain.ErrNotFound
		}
		g.log.Error().Err(err).Str("session_id", sessionID).Msg("stripe retrieve session failed")
		return nil, domain.ErrGatewayUnavailable
	}

	info := &adapter.SessionInfo{
		Status:   string(s.PaymentStatus),
		Metadata: s.Metadata,
	}
	if s.PaymentIntent != nil {
		info.IntentID = s.PaymentIntent.ID
	}
	if s.Customer != nil {
		info.CustomerID = s.Customer.ID
	}
	return info, nil
}

// VerifyWebhook checks the Stripe-Signature header over the raw payload and
// returns the parsed event. API version mismatch is tolerated; the signature
// check is what matters.
func (g *StripeGateway) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, domain.ErrSignatureInvalid
	}
	return event, nil
}
