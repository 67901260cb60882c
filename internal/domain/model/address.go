package model

import "time"

// 集荷・配達に使う住所（座標は配送料計算に使う）
type Address struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	//自宅・職場など
	Label string `gorm:"type:varchar(100)" json:"label"`

	Line string `gorm:"type:varchar(255);not null" json:"line"`
	City string `gorm:"type:varchar(255);not null" json:"city"`

	//配送料のHaversine計算に使う座標
	Lat float64 `gorm:"not null" json:"lat"`
	Lng float64 `gorm:"not null" json:"lng"`

	IsDefault bool `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
