package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type notificationGormRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) repo.NotificationRepository {
	return &notificationGormRepository{db: db}
}

func (r *notificationGormRepository) Create(ctx context.Context, n *model.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return err
	}
	return nil
}

func (r *notificationGormRepository) ListByUserID(ctx context.Context, userID int64, unreadOnly bool, page int, limit int) ([]model.Notification, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return []model.Notification{}, 0, err
	}

	var list []model.Notification
	offset := (page - 1) * limit
	err := q.Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error
	if err != nil {
		return []model.Notification{}, 0, err
	}

	return list, total, nil
}

// 本人の未読だけを既読にする
func (r *notificationGormRepository) MarkRead(ctx context.Context, userID int64, notificationID int64, readAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		Update("read_at", &readAt)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *notificationGormRepository) MarkAllRead(ctx context.Context, userID int64, readAt time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", &readAt)

	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
