package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"news-site-backend/internal/domain"
	"news-site-backend/internal/domain/model"
	"news-site-backend/internal/domain/ports/repository"
)

var _ repository.WebhookEventRepository = (*webhookEventRepo)(nil)

type webhookEventRepo struct{ pool *pgxpool.Pool }

func NewWebhookEventRepo(pool *pgxpool.Pool) *webhookEventRepo {
	return &webhookEventRepo{pool: pool}
}

const webhookEventCols = `id, provider, event_id, event_type, status, payload, error_message, created_at, processed_at`

func scanWebhookEvent(row pgx.Row) (*model.WebhookEvent, error) {
	e := &model.WebhookEvent{}
	if err := row.Scan(&e.ID, &e.Provider, &e.EventID, &e.EventType, &e.Status, &e.Payload, &e.ErrorMessage, &e.CreatedAt, &e.ProcessedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return e, nil
}

// Insert relies on the unique index over (provider, event_id): the first
// delivery wins the row, every redelivery gets ErrAlreadyExists.
func (r *webhookEventRepo) Insert(ctx context.Context, tx repository.Tx, e *model.WebhookEvent) error {
	const q = `
INSERT INTO webhook_events (id, provider, event_id, event_type, status, payload, error_message, created_at, processed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);`
	_, err := execSQL(ctx, r.pool, tx, q, e.ID, e.Provider, e.EventID, e.EventType, e.Status, e.Payload, e.ErrorMessage, e.CreatedAt, e.ProcessedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *webhookEventRepo) FindByEventID(ctx context.Context, tx repository.Tx, provider, eventID string) (*model.WebhookEvent, error) {
	const q = `SELECT ` + webhookEventCols + ` FROM webhook_events WHERE provider=$1 AND event_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, provider, eventID)
	if err != nil {
		return nil, err
	}
	return scanWebhookEvent(row)
}

func (r *webhookEventRepo) MarkOutcome(ctx context.Context, tx repository.Tx, id string, status model.WebhookEventStatus, errMsg string, processedAt time.Time) error {
	const q = `UPDATE webhook_events SET status=$2, error_message=$3, processed_at=$4 WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, status, errMsg, processedAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *webhookEventRepo) ListRetryable(ctx context.Context, tx repository.Tx, since, stuckBefore time.Time, limit int) ([]*model.WebhookEvent, error) {
	const q = `SELECT ` + webhookEventCols + `
FROM webhook_events
WHERE created_at >= $1
  AND (status='failed' OR (status='pending' AND created_at < $2))
ORDER BY created_at ASC
LIMIT $3;`
	rows, err := queryRows(ctx, r.pool, tx, q, since, stuckBefore, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.WebhookEvent
	for rows.Next() {
		e, err := scanWebhookEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
