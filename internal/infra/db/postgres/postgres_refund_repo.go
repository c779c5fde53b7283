package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"news-site-backend/internal/domain"
	"news-site-backend/internal/domain/model"
	"news-site-backend/internal/domain/ports/repository"
)

var _ repository.RefundRepository = (*refundRepo)(nil)

type refundRepo struct{ pool *pgxpool.Pool }

func NewRefundRepo(pool *pgxpool.Pool) *refundRepo {
	return &refundRepo{pool: pool}
}

const refundCols = `id, payment_id, amount, reason, status, provider_refund_id, created_by, created_at, processed_at`

func (r *refundRepo) Save(ctx context.Context, tx repository.Tx, rf *model.Refund) error {
	const q = `
INSERT INTO refunds (id, payment_id, amount, reason, status, provider_refund_id, created_by, created_at, processed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  status=$5, provider_refund_id=$6, processed_at=$9;`
	_, err := execSQL(ctx, r.pool, tx, q, rf.ID, rf.PaymentID, rf.Amount, rf.Reason, rf.Status, rf.ProviderRefundID, rf.CreatedBy, rf.CreatedAt, rf.ProcessedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *refundRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Refund, error) {
	const q = `SELECT ` + refundCols + ` FROM refunds WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	rf := &model.Refund{}
	if err := row.Scan(&rf.ID, &rf.PaymentID, &rf.Amount, &rf.Reason, &rf.Status, &rf.ProviderRefundID, &rf.CreatedBy, &rf.CreatedAt, &rf.ProcessedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return rf, nil
}

func (r *refundRepo) ListByPayment(ctx context.Context, tx repository.Tx, paymentID string) ([]*model.Refund, error) {
	const q = `SELECT ` + refundCols + ` FROM refunds WHERE payment_id=$1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Refund
	for rows.Next() {
		rf := &model.Refund{}
		if err := rows.Scan(&rf.ID, &rf.PaymentID, &rf.Amount, &rf.Reason, &rf.Status, &rf.ProviderRefundID, &rf.CreatedBy, &rf.CreatedAt, &rf.ProcessedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, rf)
	}
	return out, nil
}

func (r *refundRepo) SumSucceededByPayment(ctx context.Context, tx repository.Tx, paymentID string) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(amount),0) FROM refunds WHERE payment_id=$1 AND status='succeeded';`
	return r.sumByPayment(ctx, tx, q, paymentID)
}

func (r *refundRepo) SumReservedByPayment(ctx context.Context, tx repository.Tx, paymentID string) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(amount),0) FROM refunds WHERE payment_id=$1 AND status IN ('pending','succeeded');`
	return r.sumByPayment(ctx, tx, q, paymentID)
}

func (r *refundRepo) sumByPayment(ctx context.Context, tx repository.Tx, q, paymentID string) (decimal.Decimal, error) {
	row, err := pickRow(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		return decimal.Zero, err
	}
	var sum decimal.Decimal
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, domain.ErrReadDatabaseRow
	}
	return sum, nil
}
