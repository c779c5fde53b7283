package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"news-site-backend/internal/domain"
	"news-site-backend/internal/domain/model"
	"news-site-backend/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentCols = `id, user_id, subscription_id, amount, currency, status, method, description, provider_intent_id, provider_session_id, provider_customer_id, meta, created_at, updated_at, processed_at`

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, user_id, subscription_id, amount, currency, status, method, description, provider_intent_id, provider_session_id, provider_customer_id, meta, created_at, updated_at, processed_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15
) ON CONFLICT (id) DO UPDATE SET
  subscription_id=$3, amount=$4, currency=$5, status=$6, method=$7, description=$8,
  provider_intent_id=$9, provider_session_id=$10, provider_customer_id=$11, meta=$12, updated_at=$14, processed_at=$15;`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.UserID, p.SubscriptionID, p.Amount, p.Currency, p.Status, p.Method, p.Description, p.ProviderIntentID, p.ProviderSessionID, p.ProviderCustomerID, p.Meta, p.CreatedAt, p.UpdatedAt, p.ProcessedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	if err := row.Scan(&p.ID, &p.UserID, &p.SubscriptionID, &p.Amount, &p.Currency, &p.Status, &p.Method, &p.Description, &p.ProviderIntentID, &p.ProviderSessionID, &p.ProviderCustomerID, &p.Meta, &p.CreatedAt, &p.UpdatedAt, &p.ProcessedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentCols + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Payment, error) {
	q := `SELECT ` + paymentCols + ` FROM payments WHERE provider_session_id=$1 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", sessionID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByIntentID(ctx context.Context, tx repository.Tx, intentID string) (*model.Payment, error) {
	q := `SELECT ` + paymentCols + ` FROM payments WHERE provider_intent_id=$1 LIMIT 1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", intentID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + paymentCols + ` FROM payments WHERE user_id=$1 ORDER BY created_at DESC OFFSET $2 LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, offset, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *paymentRepo) HasPendingByUser(ctx context.Context, tx repository.Tx, userID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM payments WHERE user_id=$1 AND status IN ('pending','processing'));`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

// UpdateStatusIfPending atomically updates status only when current status is
// 'pending' or 'processing'. The rows-affected result is the compare-and-set
// gate that keeps concurrent webhook and poll transitions single-shot.
func (r *paymentRepo) UpdateStatusIfPending(
	ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, intentID *string, processedAt *time.Time,
) (bool, error) {
	const q = `
    UPDATE payments
       SET status = $2,
           provider_intent_id = COALESCE($3, provider_intent_id),
           processed_at = $4,
           updated_at = NOW()
     WHERE id = $1
       AND status IN ('pending','processing');`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), intentID, processedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, processedAt *time.Time) error {
	const q = `UPDATE payments SET status=$2, processed_at=COALESCE($3, processed_at), updated_at=NOW() WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, status, processedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) ListProcessingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentCols + ` FROM payments WHERE status='processing' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *paymentRepo) DeleteTerminalOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time) (int64, error) {
	const q = `DELETE FROM payments WHERE status IN ('failed','cancelled') AND created_at < $1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, olderThan)
	if err != nil {
		return 0, domain.ErrOperationFailed
	}
	return cmd.RowsAffected(), nil
}

func (r *paymentRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.PaymentStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM payments GROUP BY status;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	out := make(map[model.PaymentStatus]int)
	for rows.Next() {
		var status model.PaymentStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[status] = n
	}
	return out, nil
}

func (r *paymentRepo) SumSucceededSince(ctx context.Context, tx repository.Tx, since time.Time) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(amount),0) FROM payments WHERE status='succeeded' AND processed_at >= $1;`
	row, err := pickRow(ctx, r.pool, tx, q, since)
	if err != nil {
		return decimal.Zero, err
	}
	var sum decimal.Decimal
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, domain.ErrReadDatabaseRow
	}
	return sum, nil
}
