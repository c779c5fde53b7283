package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"news-site-backend/internal/domain"
	"news-site-backend/internal/domain/model"
	"news-site-backend/internal/domain/ports/repository"
	"news-site-backend/internal/infra/metrics"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

type SubscriptionUseCase interface {
	GetByUser(ctx context.Context, userID string) (*model.Subscription, error)
	ListPlans(ctx context.Context) ([]*model.SubscriptionPlan, error)
	History(ctx context.Context, userID string) ([]*model.SubscriptionHistory, error)
	// CancelByUser cancels the user's subscription, removing its pinned post.
	CancelByUser(ctx context.Context, userID string) error
	// ExpireDue moves overdue active subscriptions to expired, removes their
	// pinned posts and writes history. Returns how many expired.
	ExpireDue(ctx context.Context, now time.Time, limit int) (int, error)
}

type subscriptionUC struct {
	txm     repository.TransactionManager
	subs    repository.SubscriptionRepository
	history repository.SubscriptionHistoryRepository
	plans   repository.SubscriptionPlanRepository
	pinned  repository.PinnedPostRepository
	log     *zerolog.Logger
}

func NewSubscriptionUseCase(
	txm repository.TransactionManager,
	subs repository.SubscriptionRepository,
	history repository.SubscriptionHistoryRepository,
	plans repository.SubscriptionPlanRepository,
	pinned repository.PinnedPostRepository,
	logger *zerolog.Logger,
) *subscriptionUC {
	lg := logger.With().Str("component", "subscription_uc").Logger()
	return &subscriptionUC{txm: txm, subs: subs, history: history, plans: plans, pinned: pinned, log: &lg}
}

func (u *subscriptionUC) GetByUser(ctx context.Context, userID string) (*model.Subscription, error) {
	return u.subs.FindByUser(ctx, repository.NoTX, userID)
}

func (u *subscriptionUC) ListPlans(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	return u.plans.ListActive(ctx, repository.NoTX)
}

func (u *subscriptionUC) History(ctx context.Context, userID string) ([]*model.SubscriptionHistory, error) {
	sub, err := u.subs.FindByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	return u.history.ListBySubscription(ctx, repository.NoTX, sub.ID)
}

func (u *subscriptionUC) CancelByUser(ctx context.Context, userID string) error {
	err := u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		sub, err := u.subs.FindByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if sub.Status == model.SubscriptionStatusCancelled {
			return domain.ErrConflict
		}
		sub.Cancel()
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		if err := u.pinned.DeleteByUser(ctx, tx, userID); err != nil {
			return err
		}
		return u.history.Append(ctx, tx, newHistoryRow(sub.ID, model.HistoryActionCancelled, "cancelled by user", nil))
	})
	if err != nil {
		return err
	}
	metrics.IncSubscriptionCancelled()
	return nil
}

func (u *subscriptionUC) ExpireDue(ctx context.Context, now time.Time, limit int) (int, error) {
	due, err := u.subs.ListExpired(ctx, repository.NoTX, now, limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, sub := range due {
		sub := sub
		err := u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			sub.Expire()
			if err := u.subs.Save(ctx, tx, sub); err != nil {
				return err
			}
			if err := u.pinned.DeleteByUser(ctx, tx, sub.UserID); err != nil {
				return err
			}
			return u.history.Append(ctx, tx, newHistoryRow(sub.ID, model.HistoryActionExpired, "subscription expired", map[string]any{"end_date": sub.EndDate}))
		})
		if err != nil {
			// One bad row must not stall the sweep.
			u.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("expire subscription")
			continue
		}
		expired++
	}
	if expired > 0 {
		metrics.IncSubscriptionsExpired(expired)
	}
	return expired, nil
}
