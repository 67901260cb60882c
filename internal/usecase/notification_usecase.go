package usecase

import (
	"context"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type NotificationUsecase struct {
	notifications repo.NotificationRepository
}

func NewNotificationUsecase(notifications repo.NotificationRepository) *NotificationUsecase {
	return &NotificationUsecase{notifications: notifications}
}

type NotificationListOutput struct {
	Notifications []model.Notification `json:"notifications"`
	Total         int64                `json:"total"`
}

type MarkAllReadOutput struct {
	ReadCount int64 `json:"read_count"`
}

func (u *NotificationUsecase) List(ctx context.Context, userID int64, unreadOnly bool, page int, limit int) (NotificationListOutput, error) {
	if userID <= 0 {
		return NotificationListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 || limit < 1 || limit > 100 {
		return NotificationListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page or limit")
	}

	list, total, err := u.notifications.ListByUserID(ctx, userID, unreadOnly, page, limit)
	if err != nil {
		return NotificationListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return NotificationListOutput{Notifications: list, Total: total}, nil
}

// 本人の通知だけ既読にできる
func (u *NotificationUsecase) MarkRead(ctx context.Context, userID int64, notificationID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if notificationID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.notifications.MarkRead(ctx, userID, notificationID, time.Now())
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *NotificationUsecase) MarkAllRead(ctx context.Context, userID int64) (MarkAllReadOutput, error) {
	if userID <= 0 {
		return MarkAllReadOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	count, err := u.notifications.MarkAllRead(ctx, userID, time.Now())
	if err != nil {
		return MarkAllReadOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return MarkAllReadOutput{ReadCount: count}, nil
}
