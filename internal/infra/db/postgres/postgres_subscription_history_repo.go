package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"news-site-backend/internal/domain"
	"news-site-backend/internal/domain/model"
	"news-site-backend/internal/domain/ports/repository"
)

var _ repository.SubscriptionHistoryRepository = (*subscriptionHistoryRepo)(nil)

type subscriptionHistoryRepo struct{ pool *pgxpool.Pool }

func NewSubscriptionHistoryRepo(pool *pgxpool.Pool) *subscriptionHistoryRepo {
	return &subscriptionHistoryRepo{pool: pool}
}

func (r *subscriptionHistoryRepo) Append(ctx context.Context, tx repository.Tx, h *model.SubscriptionHistory) error {
	const q = `
INSERT INTO subscription_history (id, subscription_id, action, description, meta, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	_, err := execSQL(ctx, r.pool, tx, q, h.ID, h.SubscriptionID, h.Action, h.Description, h.Meta, h.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionHistoryRepo) ListBySubscription(ctx context.Context, tx repository.Tx, subscriptionID string) ([]*model.SubscriptionHistory, error) {
	const q = `SELECT id, subscription_id, action, description, meta, created_at FROM subscription_history WHERE subscription_id=$1 ORDER BY id ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, subscriptionID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.SubscriptionHistory
	for rows.Next() {
		h := &model.SubscriptionHistory{}
		if err := rows.Scan(&h.ID, &h.SubscriptionID, &h.Action, &h.Description, &h.Meta, &h.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, h)
	}
	return out, nil
}
