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

var _ repository.PinnedPostRepository = (*pinnedPostRepo)(nil)

type pinnedPostRepo struct{ pool *pgxpool.Pool }

func NewPinnedPostRepo(pool *pgxpool.Pool) *pinnedPostRepo {
	return &pinnedPostRepo{pool: pool}
}

func (r *pinnedPostRepo) Save(ctx context.Context, tx repository.Tx, p *model.PinnedPost) error {
	// One pin per user: a repinning user replaces their previous pin.
	const q = `
INSERT INTO pinned_posts (id, user_id, post_id, pinned_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (user_id) DO UPDATE SET post_id=$3, pinned_at=$4;`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.UserID, p.PostID, p.PinnedAt)
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

func (r *pinnedPostRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.PinnedPost, error) {
	q := `SELECT id, user_id, post_id, pinned_at FROM pinned_posts WHERE user_id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	p := &model.PinnedPost{}
	if err := row.Scan(&p.ID, &p.UserID, &p.PostID, &p.PinnedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *pinnedPostRepo) DeleteByUser(ctx context.Context, tx repository.Tx, userID string) error {
	const q = `DELETE FROM pinned_posts WHERE user_id=$1;`
	if _, err := execSQL(ctx, r.pool, tx, q, userID); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}
