package repository

import (
	"context"

	"app/internal/domain/model"
)

// 出品一覧の絞り込み条件
type ItemListFilter struct {
	Page         int
	Limit        int
	Q            string
	Category     string
	MinPrice     *int64
	MaxPrice     *int64
	DonationOnly bool
	SellerID     *int64
}

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	FindByID(ctx context.Context, itemID int64) (model.Item, error)
	List(ctx context.Context, f ItemListFilter) ([]model.Item, int64, error)
	Update(ctx context.Context, item model.Item) error

	//AVAILABLEのときだけstatusを進める（注文時の二重予約防止）
	UpdateStatusIf(ctx context.Context, itemID int64, from model.ItemStatus, to model.ItemStatus) error

	//論理削除
	Delete(ctx context.Context, itemID int64) error
}
