package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type itemGormRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) repo.ItemRepository {
	return &itemGormRepository{db: db}
}

func (r *itemGormRepository) Create(ctx context.Context, item *model.Item) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return err
	}
	return nil
}

func (r *itemGormRepository) FindByID(ctx context.Context, itemID int64) (model.Item, error) {
	var it model.Item
	err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&it).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Item{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Item{}, err
	}
	return it, nil
}

// 公開一覧（検索・絞り込み付き）
func (r *itemGormRepository) List(ctx context.Context, f repo.ItemListFilter) ([]model.Item, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Item{})

	if f.Q != "" {
		like := "%" + f.Q + "%"
		q = q.Where("title ILIKE ? OR description ILIKE ?", like, like)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.DonationOnly {
		q = q.Where("is_donation = TRUE")
	}
	if f.SellerID != nil {
		q = q.Where("seller_id = ?", *f.SellerID)
	} else {
		//公開一覧は購入可能なものだけ
		q = q.Where("status = ?", model.ItemStatusAvailable)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return []model.Item{}, 0, err
	}

	var items []model.Item
	offset := (f.Page - 1) * f.Limit
	err := q.Order("id DESC").
		Limit(f.Limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Item{}, 0, err
	}

	return items, total, nil
}

func (r *itemGormRepository) Update(ctx context.Context, item model.Item) error {
	result := r.db.WithContext(ctx).
		Model(&model.Item{}).
		Where("id = ?", item.ID).
		Select("title", "description", "category", "size", "condition", "price", "is_donation", "pickup_address_id").
		Updates(item)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// fromのときだけstatusをtoへ進める。0件更新=他の注文に先を越された
func (r *itemGormRepository) UpdateStatusIf(ctx context.Context, itemID int64, from model.ItemStatus, to model.ItemStatus) error {
	result := r.db.WithContext(ctx).
		Model(&model.Item{}).
		Where("id = ? AND status = ?", itemID, from).
		Update("status", to)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *itemGormRepository) Delete(ctx context.Context, itemID int64) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", itemID).
		Delete(&model.Item{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
