package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"news-site-backend/internal/domain"
	"news-site-backend/internal/domain/model"
	"news-site-backend/internal/domain/ports/adapter"
	"news-site-backend/internal/domain/ports/repository"
	"news-site-backend/internal/infra/logging"
	"news-site-backend/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

type PaymentUseCase interface {
	// CreateCheckout opens a hosted checkout session for the given plan.
	// Rejected with ErrConflict when the user already has an active
	// subscription or another pending/processing payment.
	CreateCheckout(ctx context.Context, userID, planID string) (*model.Payment, *adapter.CheckoutSession, error)
	// Status returns the payment, polling the provider session as a fallback
	// when the webhook has not arrived yet.
	Status(ctx context.Context, userID, paymentID string) (*model.Payment, error)
	// Cancel aborts a pending/processing payment owned by the user.
	Cancel(ctx context.Context, userID, paymentID string) (*model.Payment, error)
	// RetryCheckout re-opens a checkout session for a failed or cancelled
	// payment, moving it back to processing.
	RetryCheckout(ctx context.Context, userID, paymentID string) (*model.Payment, *adapter.CheckoutSession, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Payment, error)

	// ProcessSuccessfulPayment finalizes a paid checkout: payment succeeded,
	// subscription activated, history written. Idempotent: a payment already
	// in a terminal state is left untouched.
	ProcessSuccessfulPayment(ctx context.Context, paymentID, intentID string) error
	// ProcessFailedPayment marks the payment failed and cancels a still
	// pending subscription. Idempotent the same way.
	ProcessFailedPayment(ctx context.Context, paymentID, reason string) error
	// RecordDispute logs a provider dispute against the payment matching the
	// intent id.
	RecordDispute(ctx context.Context, intentID, disputeID, reason string) error

	// CreateRefund submits a refund for a succeeded payment. amount nil means
	// the full remaining balance. A refund that exhausts the balance moves the
	// payment to refunded and cancels the subscription.
	CreateRefund(ctx context.Context, adminID, paymentID string, amount *decimal.Decimal, reason string) (*model.Refund, error)
}

type paymentUC struct {
	txm      repository.TransactionManager
	payments repository.PaymentRepository
	attempts repository.PaymentAttemptRepository
	refunds  repository.RefundRepository
	subs     repository.SubscriptionRepository
	history  repository.SubscriptionHistoryRepository
	plans    repository.SubscriptionPlanRepository
	pinned   repository.PinnedPostRepository
	users    repository.UserRepository
	gateway  adapter.PaymentGateway

	successURL string
	cancelURL  string

	log *zerolog.Logger
}

func NewPaymentUseCase(
	txm repository.TransactionManager,
	payments repository.PaymentRepository,
	attempts repository.PaymentAttemptRepository,
	refunds repository.RefundRepository,
	subs repository.SubscriptionRepository,
	history repository.SubscriptionHistoryRepository,
	plans repository.SubscriptionPlanRepository,
	pinned repository.PinnedPostRepository,
	users repository.UserRepository,
	gateway adapter.PaymentGateway,
	successURL, cancelURL string,
	logger *zerolog.Logger,
) *paymentUC {
	lg := logger.With().Str("component", "payment_uc").Logger()
	return &paymentUC{
		txm:      txm,
		payments: payments,
		attempts: attempts,
		refunds:  refunds,
		subs:     subs,
		history:  history,
		plans:    plans,
		pinned:   pinned,
		users:    users,
		gateway:  gateway,

		successURL: successURL,
		cancelURL:  cancelURL,

		log: &lg,
	}
}

func newHistoryRow(subscriptionID string, action model.HistoryAction, description string, meta map[string]any) *model.SubscriptionHistory {
	return &model.SubscriptionHistory{
		ID:             ulid.Make().String(),
		SubscriptionID: subscriptionID,
		Action:         action,
		Description:    description,
		Meta:           meta,
		CreatedAt:      time.Now(),
	}
}

func (u *paymentUC) CreateCheckout(ctx context.Context, userID, planID string) (*model.Payment, *adapter.CheckoutSession, error) {
	user, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, nil, err
	}
	plan, err := u.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, nil, err
	}
	if !plan.IsActive {
		return nil, nil, domain.ErrInvalidArgument
	}

	now := time.Now()
	p := &model.Payment{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      plan.Price,
		Currency:    plan.Currency,
		Status:      model.PaymentStatusPending,
		Method:      model.PaymentMethodStripe,
		Description: "Subscription: " + plan.Name,
		Meta:        map[string]any{"plan_id": planID},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		sub, err := u.subs.FindByUser(ctx, tx, userID)
		switch {
		case err == nil:
			if sub.IsActive() {
				return domain.ErrConflict
			}
			sub.PlanID = planID
			sub.Status = model.SubscriptionStatusPending
			sub.AutoRenew = false
			sub.UpdatedAt = now
		case errors.Is(err, domain.ErrNotFound):
			sub = &model.Subscription{
				ID:        uuid.NewString(),
				UserID:    userID,
				PlanID:    planID,
				Status:    model.SubscriptionStatusPending,
				CreatedAt: now,
				UpdatedAt: now,
			}
		default:
			return err
		}

		pending, err := u.payments.HasPendingByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if pending {
			return domain.ErrConflict
		}

		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		p.SubscriptionID = &sub.ID
		if err := u.payments.Save(ctx, tx, p); err != nil {
			return err
		}
		return u.history.Append(ctx, tx, newHistoryRow(sub.ID, model.HistoryActionCreated, "checkout created", map[string]any{"payment_id": p.ID}))
	})
	if err != nil {
		return nil, nil, err
	}

	return u.openSession(ctx, p, user, plan.Name)
}

// openSession drives the gateway and records the outcome on the payment row.
// A gateway failure leaves the payment failed with the error in metadata.
func (u *paymentUC) openSession(ctx context.Context, p *model.Payment, user *model.User, planName string) (*model.Payment, *adapter.CheckoutSession, error) {
	if p.ProviderCustomerID == "" {
		customerID, err := u.gateway.CreateCustomer(ctx, user)
		if err != nil {
			u.failOnGatewayError(ctx, p, err)
			return nil, nil, domain.ErrGatewayUnavailable
		}
		p.ProviderCustomerID = customerID
	}

	cs, err := u.gateway.CreateCheckoutSession(ctx, p, planName, u.successURL, u.cancelURL)
	if err != nil {
		u.failOnGatewayError(ctx, p, err)
		return nil, nil, domain.ErrGatewayUnavailable
	}

	p.ProviderSessionID = cs.SessionID
	p.Status = model.PaymentStatusProcessing
	p.UpdatedAt = time.Now()
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, nil, err
	}
	return p, cs, nil
}

func (u *paymentUC) failOnGatewayError(ctx context.Context, p *model.Payment, gwErr error) {
	now := time.Now()
	if p.Meta == nil {
		p.Meta = map[string]any{}
	}
	p.Meta["gateway_error"] = gwErr.Error()
	p.Status = model.PaymentStatusFailed
	p.UpdatedAt = now
	p.ProcessedAt = &now
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		u.log.Error().Err(err).Str("payment_id", p.ID).Msg("mark payment failed after gateway error")
	}
	metrics.IncPayment(string(model.PaymentStatusFailed))
}

func (u *paymentUC) Status(ctx context.Context, userID, paymentID string) (*model.Payment, error) {
	p, err := u.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.ErrNotFound
	}

	// Webhook may lag the redirect back from checkout; ask the provider
	// directly when the payment still looks open.
	if p.IsPending() && p.ProviderSessionID != "" {
		info, err := u.gateway.RetrieveSession(ctx, p.ProviderSessionID)
		if err == nil && info.Status == "paid" {
			if perr := u.ProcessSuccessfulPayment(ctx, p.ID, info.IntentID); perr != nil {
				u.log.Error().Err(perr).Str("payment_id", p.ID).Msg("finalize via status poll")
			} else {
				return u.payments.FindByID(ctx, repository.NoTX, p.ID)
			}
		}
	}
	return p, nil
}

func (u *paymentUC) Cancel(ctx context.Context, userID, paymentID string) (*model.Payment, error) {
	p, err := u.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.ErrNotFound
	}
	if !p.IsPending() {
		return nil, domain.ErrConflict
	}

	err = u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		moved, err := u.payments.UpdateStatusIfPending(ctx, tx, p.ID, model.PaymentStatusCancelled, nil, nil)
		if err != nil {
			return err
		}
		if !moved {
			return domain.ErrConflict
		}
		return u.cancelPendingSubscription(ctx, tx, p, "payment cancelled by user")
	})
	if err != nil {
		return nil, err
	}
	metrics.IncPayment(string(model.PaymentStatusCancelled))
	return u.payments.FindByID(ctx, repository.NoTX, p.ID)
}

func (u *paymentUC) RetryCheckout(ctx context.Context, userID, paymentID string) (*model.Payment, *adapter.CheckoutSession, error) {
	p, err := u.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		return nil, nil, err
	}
	if p.UserID != userID {
		return nil, nil, domain.ErrNotFound
	}
	if p.Status != model.PaymentStatusFailed && p.Status != model.PaymentStatusCancelled {
		return nil, nil, domain.ErrConflict
	}

	user, err := u.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, nil, err
	}
	sub, err := u.subs.FindByUser(ctx, repository.NoTX, userID)
	if err == nil && sub.IsActive() {
		return nil, nil, domain.ErrConflict
	}
	pending, err := u.payments.HasPendingByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, nil, err
	}
	if pending {
		return nil, nil, domain.ErrConflict
	}

	planName := p.Description
	if planID, ok := p.Meta["plan_id"].(string); ok {
		if plan, err := u.plans.FindByID(ctx, repository.NoTX, planID); err == nil {
			planName = plan.Name
		}
	}

	p.ProcessedAt = nil
	return u.openSession(ctx, p, user, planName)
}

func (u *paymentUC) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*model.Payment, error) {
	return u.payments.ListByUser(ctx, repository.NoTX, userID, offset, limit)
}

func (u *paymentUC) ProcessSuccessfulPayment(ctx context.Context, paymentID, intentID string) error {
	ctx = logging.WithPaymentID(ctx, paymentID)
	return u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now()
		var intentPtr *string
		if intentID != "" {
			intentPtr = &intentID
		}
		moved, err := u.payments.UpdateStatusIfPending(ctx, tx, paymentID, model.PaymentStatusSucceeded, intentPtr, &now)
		if err != nil {
			return err
		}
		if !moved {
			// Already terminal: a redelivered event or a poll/webhook race.
			logging.With(ctx, u.log).Debug().Msg("success transition skipped, payment already terminal")
			return nil
		}

		p, err := u.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}

		sub, err := u.subs.FindByUser(ctx, tx, p.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			sub = &model.Subscription{
				ID:        uuid.NewString(),
				UserID:    p.UserID,
				Status:    model.SubscriptionStatusPending,
				CreatedAt: now,
				UpdatedAt: now,
			}
			err = nil
		}
		if err != nil {
			return err
		}
		if planID, ok := p.Meta["plan_id"].(string); ok && planID != "" {
			sub.PlanID = planID
		}
		plan, err := u.plans.FindByID(ctx, tx, sub.PlanID)
		if err != nil {
			return err
		}

		sub.Activate(plan)
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		if p.SubscriptionID == nil {
			p.SubscriptionID = &sub.ID
			if err := u.payments.Save(ctx, tx, p); err != nil {
				return err
			}
		}

		if err := u.attempts.Append(ctx, tx, &model.PaymentAttempt{
			ID:               ulid.Make().String(),
			PaymentID:        p.ID,
			ProviderChargeID: intentID,
			Status:           string(model.PaymentStatusSucceeded),
			CreatedAt:        now,
		}); err != nil {
			return err
		}
		if err := u.history.Append(ctx, tx, newHistoryRow(sub.ID, model.HistoryActionActivated, "payment succeeded", map[string]any{
			"payment_id": p.ID,
			"plan_id":    sub.PlanID,
			"end_date":   sub.EndDate,
		})); err != nil {
			return err
		}

		metrics.IncPayment(string(model.PaymentStatusSucceeded))
		metrics.IncSubscriptionActivated()
		f, _ := p.Amount.Float64()
		metrics.AddPaymentRevenue(p.Currency, f)
		return nil
	})
}

func (u *paymentUC) ProcessFailedPayment(ctx context.Context, paymentID, reason string) error {
	return u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		now := time.Now()
		moved, err := u.payments.UpdateStatusIfPending(ctx, tx, paymentID, model.PaymentStatusFailed, nil, &now)
		if err != nil {
			return err
		}
		if !moved {
			u.log.Debug().Str("payment_id", paymentID).Msg("failure transition skipped, payment already terminal")
			return nil
		}

		p, err := u.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if err := u.attempts.Append(ctx, tx, &model.PaymentAttempt{
			ID:           ulid.Make().String(),
			PaymentID:    p.ID,
			Status:       string(model.PaymentStatusFailed),
			ErrorMessage: reason,
			CreatedAt:    now,
		}); err != nil {
			return err
		}
		if err := u.cancelPendingSubscription(ctx, tx, p, reason); err != nil {
			return err
		}
		metrics.IncPayment(string(model.PaymentStatusFailed))
		return nil
	})
}

// cancelPendingSubscription cancels the payment's subscription only while it
// is still pending; an already active subscription is left alone.
func (u *paymentUC) cancelPendingSubscription(ctx context.Context, tx repository.Tx, p *model.Payment, reason string) error {
	if p.SubscriptionID == nil {
		return nil
	}
	sub, err := u.subs.FindByID(ctx, tx, *p.SubscriptionID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if sub.Status != model.SubscriptionStatusPending {
		return nil
	}
	sub.Cancel()
	if err := u.subs.Save(ctx, tx, sub); err != nil {
		return err
	}
	return u.history.Append(ctx, tx, newHistoryRow(sub.ID, model.HistoryActionPaymentFailed, reason, map[string]any{"payment_id": p.ID}))
}

func (u *paymentUC) RecordDispute(ctx context.Context, intentID, disputeID, reason string) error {
	p, err := u.payments.FindByIntentID(ctx, repository.NoTX, intentID)
	if err != nil {
		return err
	}
	u.log.Warn().Str("payment_id", p.ID).Str("dispute_id", disputeID).Msg("charge disputed")
	return u.attempts.Append(ctx, repository.NoTX, &model.PaymentAttempt{
		ID:               ulid.Make().String(),
		PaymentID:        p.ID,
		ProviderChargeID: disputeID,
		Status:           "disputed",
		ErrorMessage:     reason,
		CreatedAt:        time.Now(),
	})
}

func (u *paymentUC) CreateRefund(ctx context.Context, adminID, paymentID string, amount *decimal.Decimal, reason string) (*model.Refund, error) {
	r := &model.Refund{
		ID:        uuid.NewString(),
		PaymentID: paymentID,
		Reason:    reason,
		Status:    model.RefundStatusPending,
		CreatedBy: adminID,
		CreatedAt: time.Now(),
	}

	// Reserve the amount under the payment row lock before touching the
	// gateway. Pending refunds count against the balance, so a concurrent
	// request on the same payment cannot pass the bound twice.
	var p *model.Payment
	err := u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		p, err = u.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if !p.CanBeRefunded() || p.ProviderIntentID == "" {
			return domain.ErrNotRefundable
		}
		reserved, err := u.refunds.SumReservedByPayment(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		remaining := p.Amount.Sub(reserved)
		amt := remaining
		if amount != nil {
			amt = *amount
		}
		if amt.LessThanOrEqual(decimal.Zero) || amt.GreaterThan(remaining) {
			return domain.ErrRefundExceedsBalance
		}
		r.Amount = amt
		return u.refunds.Save(ctx, tx, r)
	})
	if err != nil {
		return nil, err
	}

	providerID, done, gwErr := u.gateway.Refund(ctx, p, &r.Amount, reason)
	now := time.Now()
	if gwErr != nil {
		// Release the reservation.
		r.Status = model.RefundStatusFailed
		r.ProcessedAt = &now
		if err := u.refunds.Save(ctx, repository.NoTX, r); err != nil {
			u.log.Error().Err(err).Str("payment_id", p.ID).Msg("save failed refund")
		}
		metrics.IncRefund(string(model.RefundStatusFailed))
		return nil, gwErr
	}
	r.ProviderRefundID = providerID
	if done {
		r.Status = model.RefundStatusSucceeded
		r.ProcessedAt = &now
	}

	err = u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.refunds.Save(ctx, tx, r); err != nil {
			return err
		}
		if !done {
			return nil
		}
		refunded, err := u.refunds.SumSucceededByPayment(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		if !refunded.Equal(p.Amount) {
			return nil
		}
		// Balance exhausted: payment refunded, subscription gone, perk gone.
		if err := u.payments.UpdateStatus(ctx, tx, p.ID, model.PaymentStatusRefunded, nil); err != nil {
			return err
		}
		sub, err := u.subs.FindByUser(ctx, tx, p.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		sub.Cancel()
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		if err := u.pinned.DeleteByUser(ctx, tx, p.UserID); err != nil {
			return err
		}
		metrics.IncSubscriptionCancelled()
		return u.history.Append(ctx, tx, newHistoryRow(sub.ID, model.HistoryActionCancelled, "full refund", map[string]any{
			"payment_id": p.ID,
			"refund_id":  r.ID,
		}))
	})
	if err != nil {
		return nil, err
	}
	metrics.IncRefund(string(r.Status))
	return r, nil
}
