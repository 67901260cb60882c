package model

import (
	"time"

	"gorm.io/gorm"
)

type ItemStatus string

const (
	ItemStatusAvailable ItemStatus = "AVAILABLE"
	ItemStatusReserved  ItemStatus = "RESERVED"
	ItemStatusSold      ItemStatus = "SOLD"
	ItemStatusDonated   ItemStatus = "DONATED"
)

type ItemCondition string

const (
	ItemConditionNew      ItemCondition = "NEW"
	ItemConditionLikeNew  ItemCondition = "LIKE_NEW"
	ItemConditionGood     ItemCondition = "GOOD"
	ItemConditionFair     ItemCondition = "FAIR"
)

// 出品（古着1点＝1レコード）
type Item struct {
	ID          int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	SellerID    int64         `gorm:"not null;index" json:"seller_id"`
	Title       string        `gorm:"type:varchar(255);not null" json:"title"`
	Description string        `gorm:"type:text" json:"description"`
	Category    string        `gorm:"type:varchar(100);not null;index" json:"category"`
	Size        string        `gorm:"type:varchar(30)" json:"size"`
	Condition   ItemCondition `gorm:"type:varchar(20);not null" json:"condition"`

	//寄付ならprice=0
	Price      int64 `gorm:"not null" json:"price"`
	IsDonation bool  `gorm:"not null;default:false" json:"is_donation"`

	Status ItemStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	//集荷元住所（出品者の住所）
	PickupAddressID int64 `gorm:"not null" json:"pickup_address_id"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
