package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUserID(ctx context.Context, userID int64, unreadOnly bool, page int, limit int) ([]model.Notification, int64, error)

	//本人の通知だけを既読にできる
	MarkRead(ctx context.Context, userID int64, notificationID int64, readAt time.Time) error
	MarkAllRead(ctx context.Context, userID int64, readAt time.Time) (int64, error)
}
