package repository

import (
	"context"
	"errors"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) ListByBuyerID(ctx context.Context, buyerID int64, page int, limit int) ([]model.Order, int64, error) {
	return r.list(ctx, "buyer_id = ?", []interface{}{buyerID}, page, limit)
}

func (r *OrderGormRepository) ListByDriverID(ctx context.Context, driverID int64, page int, limit int) ([]model.Order, int64, error) {
	return r.list(ctx, "driver_id = ?", []interface{}{driverID}, page, limit)
}

// ドライバー未割当のPENDING注文
func (r *OrderGormRepository) ListOpen(ctx context.Context, page int, limit int) ([]model.Order, int64, error) {
	return r.list(ctx, "status = ? AND driver_id IS NULL", []interface{}{model.OrderStatusPending}, page, limit)
}

func (r *OrderGormRepository) list(ctx context.Context, cond string, args []interface{}, page int, limit int) ([]model.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where(cond, args...).
		Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var orders []model.Order
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where(cond, args...).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return orders, total, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("status", status)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 配達完了を記録する
func (r *OrderGormRepository) MarkDelivered(ctx context.Context, orderID int64, deliveredAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"status":       model.OrderStatusDelivered,
			"delivered_at": &deliveredAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// PENDINGかつ未割当のときだけ割り当てる。0件更新=他のドライバーが先に取った
func (r *OrderGormRepository) AssignDriverIf(ctx context.Context, orderID int64, driverID int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ? AND driver_id IS NULL", orderID, model.OrderStatusPending).
		Updates(map[string]interface{}{
			"driver_id": driverID,
			"status":    model.OrderStatusAccepted,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, buyerID int64, key string) (model.Order, bool, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND idempotency_key = ?", buyerID, key).
		First(&o).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, false, nil
	}
	if err != nil {
		return model.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != nil {
		q = q.Where("buyer_id = ?", *f.UserID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var orders []model.Order
	offset := (f.Page - 1) * f.Limit
	err := q.Order("id desc").
		Limit(f.Limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		return []model.Order{}, 0, err
	}

	return orders, total, nil
}
