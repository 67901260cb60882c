package model

import "time"

// お気に入り（user×itemで1件）
type Favorite struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_fav_user_item" json:"user_id"`
	ItemID    int64     `gorm:"not null;uniqueIndex:idx_fav_user_item;index" json:"item_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
