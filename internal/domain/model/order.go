package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusAccepted   OrderStatus = "ACCEPTED"
	OrderStatusInDelivery OrderStatus = "IN_DELIVERY"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCanceled   OrderStatus = "CANCELED"
)

// 支払いは代金引換のみ
const PaymentMethodCOD = "CASH_ON_DELIVERY"

// 注文（古着1点につき1注文）
type Order struct {
	ID      int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	BuyerID int64 `gorm:"not null;index" json:"buyer_id"`
	ItemID  int64 `gorm:"not null;index" json:"item_id"`

	//配達を受けたドライバー（受諾まではnull）
	DriverID *int64 `gorm:"index" json:"driver_id"`

	//配達先住所
	DropoffAddressID int64 `gorm:"not null" json:"dropoff_address_id"`

	Status        OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentMethod string      `gorm:"type:varchar(30);not null" json:"payment_method"`

	//商品代金＋配送料（寄付は商品代金0）
	ItemPrice   int64 `gorm:"not null" json:"item_price"`
	DeliveryFee int64 `gorm:"not null" json:"delivery_fee"`
	TotalPrice  int64 `gorm:"not null" json:"total_price"`

	IdempotencyKey string `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`

	DeliveredAt *time.Time `json:"delivered_at"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
