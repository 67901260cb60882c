package usecase

import (
	"context"
	"net/http"

	repo "app/internal/repository"
)

type AdminOrderUsecase struct {
	orders repo.OrderRepository
}

func NewAdminOrderUsecase(orders repo.OrderRepository) *AdminOrderUsecase {
	return &AdminOrderUsecase{orders: orders}
}

// 全注文の一覧（admin用）
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (OrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	orders, total, err := u.orders.ListAdmin(ctx, f)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toOrderListOutput(orders, total), nil
}
