package model

import "time"

type NotificationType string

const (
	NotificationOrderPlaced    NotificationType = "ORDER_PLACED"
	NotificationOrderAccepted  NotificationType = "ORDER_ACCEPTED"
	NotificationOrderDelivered NotificationType = "ORDER_DELIVERED"
	NotificationDriverVerified NotificationType = "DRIVER_VERIFIED"
)

type Notification struct {
	ID      int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID  int64            `gorm:"not null;index" json:"user_id"`
	Type    NotificationType `gorm:"type:varchar(50);not null" json:"type"`
	Message string           `gorm:"type:varchar(500);not null" json:"message"`

	//未読ならnull
	ReadAt *time.Time `json:"read_at"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}
