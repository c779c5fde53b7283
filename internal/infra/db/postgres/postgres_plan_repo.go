package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"news-site-backend/internal/domain"
	"news-site-backend/internal/domain/model"
	"news-site-backend/internal/domain/ports/repository"
)

var _ repository.SubscriptionPlanRepository = (*planRepo)(nil)

type planRepo struct{ pool *pgxpool.Pool }

func NewPlanRepo(pool *pgxpool.Pool) *planRepo {
	return &planRepo{pool: pool}
}

const planCols = `id, name, price, currency, duration_days, provider_price_id, features, is_active, created_at, updated_at`

func scanPlan(row pgx.Row) (*model.SubscriptionPlan, error) {
	p := &model.SubscriptionPlan{}
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Currency, &p.DurationDays, &p.ProviderPriceID, &p.Features, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *planRepo) Save(ctx context.Context, tx repository.Tx, p *model.SubscriptionPlan) error {
	const q = `
INSERT INTO subscription_plans (id, name, price, currency, duration_days, provider_price_id, features, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
  name=$2, price=$3, currency=$4, duration_days=$5, provider_price_id=$6, features=$7, is_active=$8, updated_at=$10;`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.Price, p.Currency, p.DurationDays, p.ProviderPriceID, p.Features, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *planRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	const q = `SELECT ` + planCols + ` FROM subscription_plans WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPlan(row)
}

func (r *planRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	const q = `SELECT ` + planCols + ` FROM subscription_plans WHERE is_active=true ORDER BY price ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.SubscriptionPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
