package repository

import (
	"context"
	"time"

	"news-site-backend/internal/domain/model"
)

type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	FindByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)
	// ListExpired returns active subscriptions whose end date is in the past.
	ListExpired(ctx context.Context, tx Tx, now time.Time, limit int) ([]*model.Subscription, error)
	// ListExpiringBetween returns active subscriptions ending inside the
	// window, for the reminder sweep.
	ListExpiringBetween(ctx context.Context, tx Tx, from, to time.Time) ([]*model.Subscription, error)
	CountActiveByPlan(ctx context.Context, tx Tx) (map[string]int, error)
}

// SubscriptionHistoryRepository is append-only.
type SubscriptionHistoryRepository interface {
	Append(ctx context.Context, tx Tx, h *model.SubscriptionHistory) error
	ListBySubscription(ctx context.Context, tx Tx, subscriptionID string) ([]*model.SubscriptionHistory, error)
}

type SubscriptionPlanRepository interface {
	Save(ctx context.Context, tx Tx, p *model.SubscriptionPlan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.SubscriptionPlan, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.SubscriptionPlan, error)
}

type PinnedPostRepository interface {
	Save(ctx context.Context, tx Tx, p *model.PinnedPost) error
	FindByUser(ctx context.Context, tx Tx, userID string) (*model.PinnedPost, error)
	DeleteByUser(ctx context.Context, tx Tx, userID string) error
}
