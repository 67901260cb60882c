package usecase

import (
	"context"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type FavoriteUsecase struct {
	favRepo  repo.FavoriteRepository
	itemRepo repo.ItemRepository
}

func NewFavoriteUsecase(favRepo repo.FavoriteRepository, itemRepo repo.ItemRepository) *FavoriteUsecase {
	return &FavoriteUsecase{favRepo: favRepo, itemRepo: itemRepo}
}

type FavoriteListOutput struct {
	Items []ItemOutput `json:"items"`
}

// お気に入りに追加（二重追加は成功扱い）
func (u *FavoriteUsecase) Add(ctx context.Context, userID int64, itemID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if itemID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid item_id")
	}

	//存在する出品だけ
	if _, err := u.itemRepo.FindByID(ctx, itemID); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "item not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	fav := model.Favorite{UserID: userID, ItemID: itemID}
	if err := u.favRepo.Create(ctx, &fav); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *FavoriteUsecase) Remove(ctx context.Context, userID int64, itemID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	err := u.favRepo.Delete(ctx, userID, itemID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// お気に入りの出品一覧
func (u *FavoriteUsecase) List(ctx context.Context, userID int64) (FavoriteListOutput, error) {
	if userID <= 0 {
		return FavoriteListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	favs, err := u.favRepo.ListByUserID(ctx, userID)
	if err != nil {
		return FavoriteListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items := make([]ItemOutput, 0, len(favs))
	for _, f := range favs {
		it, err := u.itemRepo.FindByID(ctx, f.ItemID)
		if err == repo.ErrNotFound {
			//削除済みの出品は飛ばす
			continue
		}
		if err != nil {
			return FavoriteListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		items = append(items, toItemOutput(it))
	}

	return FavoriteListOutput{Items: items}, nil
}
