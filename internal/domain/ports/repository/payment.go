package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"news-site-backend/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindBySessionID(ctx context.Context, tx Tx, sessionID string) (*model.Payment, error)
	FindByIntentID(ctx context.Context, tx Tx, intentID string) (*model.Payment, error)
	ListByUser(ctx context.Context, tx Tx, userID string, offset, limit int) ([]*model.Payment, error)
	// HasPendingByUser reports whether the user has a payment in
	// pending or processing state.
	HasPendingByUser(ctx context.Context, tx Tx, userID string) (bool, error)
	// UpdateStatusIfPending atomically transitions status only when the
	// current status is pending or processing. Returns whether a row moved.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, intentID *string, processedAt *time.Time) (bool, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.PaymentStatus, processedAt *time.Time) error
	// ListProcessingOlderThan returns stale processing payments for the reconciler.
	ListProcessingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
	// DeleteTerminalOlderThan removes failed/cancelled payments older than the
	// cutoff. Attempts and refunds cascade at the schema level.
	DeleteTerminalOlderThan(ctx context.Context, tx Tx, olderThan time.Time) (int64, error)

	// Analytics
	CountByStatus(ctx context.Context, tx Tx) (map[model.PaymentStatus]int, error)
	SumSucceededSince(ctx context.Context, tx Tx, since time.Time) (decimal.Decimal, error)
}

// PaymentAttemptRepository is append-only: rows are never updated or deleted
// except by payment cascade.
type PaymentAttemptRepository interface {
	Append(ctx context.Context, tx Tx, a *model.PaymentAttempt) error
	ListByPayment(ctx context.Context, tx Tx, paymentID string) ([]*model.PaymentAttempt, error)
}

type RefundRepository interface {
	Save(ctx context.Context, tx Tx, r *model.Refund) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Refund, error)
	ListByPayment(ctx context.Context, tx Tx, paymentID string) ([]*model.Refund, error)
	// SumSucceededByPayment returns the total of succeeded refund amounts.
	SumSucceededByPayment(ctx context.Context, tx Tx, paymentID string) (decimal.Decimal, error)
	// SumReservedByPayment totals pending and succeeded refunds; a pending
	// row holds its amount against the refundable balance until it settles.
	SumReservedByPayment(ctx context.Context, tx Tx, paymentID string) (decimal.Decimal, error)
}
