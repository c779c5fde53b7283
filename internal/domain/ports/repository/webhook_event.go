package repository

import (
	"context"
	"time"

	"news-site-backend/internal/domain/model"
)

type WebhookEventRepository interface {
	// Insert creates the row for a new provider event id. A duplicate id
	// returns domain.ErrAlreadyExists; the unique constraint is the
	// at-most-once gate for concurrent redeliveries.
	Insert(ctx context.Context, tx Tx, e *model.WebhookEvent) error
	FindByEventID(ctx context.Context, tx Tx, provider, eventID string) (*model.WebhookEvent, error)
	// MarkOutcome records the terminal status, error message and processed time.
	MarkOutcome(ctx context.Context, tx Tx, id string, status model.WebhookEventStatus, errMsg string, processedAt time.Time) error
	// ListRetryable returns events the retry sweep should re-dispatch:
	// failed events created inside the lookback window, plus pending events
	// created before stuckBefore (a crash between insert and outcome leaves
	// the row pending, and the provider's redelivery dedupes as a no-op).
	ListRetryable(ctx context.Context, tx Tx, since, stuckBefore time.Time, limit int) ([]*model.WebhookEvent, error)
}
