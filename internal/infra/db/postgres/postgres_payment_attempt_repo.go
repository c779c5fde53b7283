package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"news-site-backend/internal/domain"
	"news-site-backend/internal/domain/model"
	"news-site-backend/internal/domain/ports/repository"
)

var _ repository.PaymentAttemptRepository = (*paymentAttemptRepo)(nil)

type paymentAttemptRepo struct{ pool *pgxpool.Pool }

func NewPaymentAttemptRepo(pool *pgxpool.Pool) *paymentAttemptRepo {
	return &paymentAttemptRepo{pool: pool}
}

func (r *paymentAttemptRepo) Append(ctx context.Context, tx repository.Tx, a *model.PaymentAttempt) error {
	const q = `
INSERT INTO payment_attempts (id, payment_id, provider_charge_id, status, error_message, meta, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);`
	_, err := execSQL(ctx, r.pool, tx, q, a.ID, a.PaymentID, a.ProviderChargeID, a.Status, a.ErrorMessage, a.Meta, a.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentAttemptRepo) ListByPayment(ctx context.Context, tx repository.Tx, paymentID string) ([]*model.PaymentAttempt, error) {
	const q = `SELECT id, payment_id, provider_charge_id, status, error_message, meta, created_at FROM payment_attempts WHERE payment_id=$1 ORDER BY id ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.PaymentAttempt
	for rows.Next() {
		a := &model.PaymentAttempt{}
		if err := rows.Scan(&a.ID, &a.PaymentID, &a.ProviderChargeID, &a.Status, &a.ErrorMessage, &a.Meta, &a.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, a)
	}
	return out, nil
}
