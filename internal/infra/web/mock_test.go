//go:build !integration

package web

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v83"

	"news-site-backend/internal/domain/model"
	"news-site-backend/internal/domain/ports/adapter"
	"news-site-backend/internal/usecase"
)

// Function-field stubs so each test overrides just the calls it cares about.

type stubPaymentUC struct {
	CreateCheckoutFunc func(ctx context.Context, userID, planID string) (*model.Payment, *adapter.CheckoutSession, error)
	StatusFunc         func(ctx context.Context, userID, paymentID string) (*model.Payment, error)
	CancelFunc         func(ctx context.Context, userID, paymentID string) (*model.Payment, error)
	RetryCheckoutFunc  func(ctx context.Context, userID, paymentID string) (*model.Payment, *adapter.CheckoutSession, error)
	ListByUserFunc     func(ctx context.Context, userID string, offset, limit int) ([]*model.Payment, error)
	CreateRefundFunc   func(ctx context.Context, adminID, paymentID string, amount *decimal.Decimal, reason string) (*model.Refund, error)
}

var _ usecase.PaymentUseCase = (*stubPaymentUC)(nil)

func (s *stubPaymentUC) CreateCheckout(ctx context.Context, userID, planID string) (*model.Payment, *adapter.CheckoutSession, error) {
	return s.CreateCheckoutFunc(ctx, userID, planID)
}

func (s *stubPaymentUC) Status(ctx context.Context, userID, paymentID string) (*model.Payment, error) {
	return s.StatusFunc(ctx, userID, paymentID)
}

func (s *stubPaymentUC) Cancel(ctx context.Context, userID, paymentID string) (*model.Payment, error) {
	return s.CancelFunc(ctx, userID, paymentID)
}

func (s *stubPaymentUC) RetryCheckout(ctx context.Context, userID, paymentID string) (*model.Payment, *adapter.CheckoutSession, error) {
	return s.RetryCheckoutFunc(ctx, userID, paymentID)
}

func (s *stubPaymentUC) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Payment, error) {
	return s.ListByUserFunc(ctx, userID, offset, limit)
}

func (s *stubPaymentUC) ProcessSuccessfulPayment(ctx context.Context, paymentID, intentID string) error {
	return nil
}

func (s *stubPaymentUC) ProcessFailedPayment(ctx context.Context, paymentID, reason string) error {
	return nil
}

func (s *stubPaymentUC) RecordDispute(ctx context.Context, intentID, disputeID, reason string) error {
	return nil
}

func (s *stubPaymentUC) CreateRefund(ctx context.Context, adminID, paymentID string, amount *decimal.Decimal, reason string) (*model.Refund, error) {
	return s.CreateRefundFunc(ctx, adminID, paymentID, amount, reason)
}

type stubSubUC struct {
	GetByUserFunc    func(ctx context.Context, userID string) (*model.Subscription, error)
	ListPlansFunc    func(ctx context.Context) ([]*model.SubscriptionPlan, error)
	HistoryFunc      func(ctx context.Context, userID string) ([]*model.SubscriptionHistory, error)
	CancelByUserFunc func(ctx context.Context, userID string) error
}

var _ usecase.SubscriptionUseCase = (*stubSubUC)(nil)

func (s *stubSubUC) GetByUser(ctx context.Context, userID string) (*model.Subscription, error) {
	return s.GetByUserFunc(ctx, userID)
}

func (s *stubSubUC) ListPlans(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	return s.ListPlansFunc(ctx)
}

func (s *stubSubUC) History(ctx context.Context, userID string) ([]*model.SubscriptionHistory, error) {
	return s.HistoryFunc(ctx, userID)
}

func (s *stubSubUC) CancelByUser(ctx context.Context, userID string) error {
	return s.CancelByUserFunc(ctx, userID)
}

func (s *stubSubUC) ExpireDue(ctx context.Context, now time.Time, limit int) (int, error) {
	return 0, nil
}

type stubPinUC struct {
	PinFunc       func(ctx context.Context, userID, postID string) (*model.PinnedPost, error)
	UnpinFunc     func(ctx context.Context, userID string) error
	GetByUserFunc func(ctx context.Context, userID string) (*model.PinnedPost, error)
}

var _ usecase.PinUseCase = (*stubPinUC)(nil)

func (s *stubPinUC) Pin(ctx context.Context, userID, postID string) (*model.PinnedPost, error) {
	return s.PinFunc(ctx, userID, postID)
}

func (s *stubPinUC) Unpin(ctx context.Context, userID string) error {
	return s.UnpinFunc(ctx, userID)
}

func (s *stubPinUC) GetByUser(ctx context.Context, userID string) (*model.PinnedPost, error) {
	return s.GetByUserFunc(ctx, userID)
}

type stubStatsUC struct {
	PaymentAnalyticsFunc func(ctx context.Context) (*usecase.PaymentAnalytics, error)
}

var _ usecase.StatsUseCase = (*stubStatsUC)(nil)

func (s *stubStatsUC) PaymentAnalytics(ctx context.Context) (*usecase.PaymentAnalytics, error) {
	return s.PaymentAnalyticsFunc(ctx)
}

type stubWebhookUC struct {
	HandleEventFunc func(ctx context.Context, provider, eventID, eventType string, payload []byte) error

	Handled []string // event ids
}

var _ usecase.WebhookUseCase = (*stubWebhookUC)(nil)

func (s *stubWebhookUC) HandleEvent(ctx context.Context, provider, eventID, eventType string, payload []byte) error {
	if s.HandleEventFunc != nil {
		return s.HandleEventFunc(ctx, provider, eventID, eventType, payload)
	}
	s.Handled = append(s.Handled, eventID)
	return nil
}

func (s *stubWebhookUC) RetryFailed(ctx context.Context, lookback time.Duration, limit int) (int, error) {
	return 0, nil
}

type stubVerifier struct {
	event    stripe.Event
	err      error
	payloads [][]byte
}

func (v *stubVerifier) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	v.payloads = append(v.payloads, payload)
	if v.err != nil {
		return stripe.Event{}, v.err
	}
	return v.event, nil
}

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
