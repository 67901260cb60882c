package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByBuyerID(ctx context.Context, buyerID int64, page int, limit int) ([]model.Order, int64, error)
	ListByDriverID(ctx context.Context, driverID int64, page int, limit int) ([]model.Order, int64, error)

	//ドライバー未割当のPENDING注文一覧
	ListOpen(ctx context.Context, page int, limit int) ([]model.Order, int64, error)

	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	//配達完了。statusと同時にdelivered_atを入れる
	MarkDelivered(ctx context.Context, orderID int64, deliveredAt time.Time) error

	//PENDINGかつ未割当のときだけドライバーを割り当てる（早い者勝ち）
	AssignDriverIf(ctx context.Context, orderID int64, driverID int64) error

	//同じキーなら同じ結果を返す
	FindByIdempotencyKey(ctx context.Context, buyerID int64, key string) (model.Order, bool, error)

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
