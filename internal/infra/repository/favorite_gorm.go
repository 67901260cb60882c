package repository

import (
	"context"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type favoriteGormRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) repo.FavoriteRepository {
	return &favoriteGormRepository{db: db}
}

// (user,item)のユニーク制約があるので重複はそのまま無視する
func (r *favoriteGormRepository) Create(ctx context.Context, fav *model.Favorite) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(fav).Error
}

func (r *favoriteGormRepository) Delete(ctx context.Context, userID int64, itemID int64) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Delete(&model.Favorite{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *favoriteGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Favorite, error) {
	var list []model.Favorite
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *favoriteGormRepository) Exists(ctx context.Context, userID int64, itemID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Favorite{}).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
