package repository

import (
	"context"

	"news-site-backend/internal/domain/model"
)

type UserRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
}

// PostRepository is the author-ownership lookup consumed for pin eligibility.
type PostRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Post, error)
}
