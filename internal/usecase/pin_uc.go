package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"news-site-backend/internal/domain"
	"news-site-backend/internal/domain/model"
	"news-site-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ PinUseCase = (*pinUC)(nil)

type PinUseCase interface {
	// Pin pins one of the user's own posts. Requires an active subscription
	// and post authorship; replaces any previous pin by the same user.
	Pin(ctx context.Context, userID, postID string) (*model.PinnedPost, error)
	Unpin(ctx context.Context, userID string) error
	GetByUser(ctx context.Context, userID string) (*model.PinnedPost, error)
}

type pinUC struct {
	txm     repository.TransactionManager
	subs    repository.SubscriptionRepository
	history repository.SubscriptionHistoryRepository
	pinned  repository.PinnedPostRepository
	posts   repository.PostRepository
	log     *zerolog.Logger
}

func NewPinUseCase(
	txm repository.TransactionManager,
	subs repository.SubscriptionRepository,
	history repository.SubscriptionHistoryRepository,
	pinned repository.PinnedPostRepository,
	posts repository.PostRepository,
	logger *zerolog.Logger,
) *pinUC {
	lg := logger.With().Str("component", "pin_uc").Logger()
	return &pinUC{txm: txm, subs: subs, history: history, pinned: pinned, posts: posts, log: &lg}
}

func (u *pinUC) Pin(ctx context.Context, userID, postID string) (*model.PinnedPost, error) {
	post, err := u.posts.FindByID(ctx, repository.NoTX, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, domain.ErrNotPostAuthor
	}

	pin := &model.PinnedPost{
		ID:       uuid.NewString(),
		UserID:   userID,
		PostID:   postID,
		PinnedAt: time.Now(),
	}
	err = u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		sub, err := u.subs.FindByUser(ctx, tx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNoActiveSubscription
		}
		if err != nil {
			return err
		}
		if !sub.IsActive() {
			return domain.ErrNoActiveSubscription
		}
		if err := u.pinned.Save(ctx, tx, pin); err != nil {
			return err
		}
		return u.history.Append(ctx, tx, newHistoryRow(sub.ID, model.HistoryActionPostPinned, "post pinned", map[string]any{"post_id": postID}))
	})
	if err != nil {
		return nil, err
	}
	return pin, nil
}

func (u *pinUC) Unpin(ctx context.Context, userID string) error {
	return u.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		pin, err := u.pinned.FindByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := u.pinned.DeleteByUser(ctx, tx, userID); err != nil {
			return err
		}
		sub, err := u.subs.FindByUser(ctx, tx, userID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return u.history.Append(ctx, tx, newHistoryRow(sub.ID, model.HistoryActionPostUnpinned, "post unpinned", map[string]any{"post_id": pin.PostID}))
	})
}

func (u *pinUC) GetByUser(ctx context.Context, userID string) (*model.PinnedPost, error) {
	return u.pinned.FindByUser(ctx, repository.NoTX, userID)
}
