package repository

import (
	"context"

	"app/internal/domain/model"
)

type FavoriteRepository interface {
	//既にあれば何もしない
	Create(ctx context.Context, fav *model.Favorite) error
	Delete(ctx context.Context, userID int64, itemID int64) error
	ListByUserID(ctx context.Context, userID int64) ([]model.Favorite, error)
	Exists(ctx context.Context, userID int64, itemID int64) (bool, error)
}
