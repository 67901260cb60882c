package usecase

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// 配送料 = 基本料 + km単価 ×距離（切り上げ）
const (
	deliveryBaseFee  int64 = 300
	deliveryFeePerKm int64 = 50

	earthRadiusKm = 6371.0
)

type OrderUsecase struct {
	tx        repo.TransactionManager
	users     repo.UserRepository
	addresses repo.AddressRepository
	orders    repo.OrderRepository
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	users repo.UserRepository,
	addresses repo.AddressRepository,
	orders repo.OrderRepository,
) *OrderUsecase {
	return &OrderUsecase{tx: tx, users: users, addresses: addresses, orders: orders}
}

type PlaceOrderInput struct {
	ItemID           int64
	DropoffAddressID int64
	IdempotencyKey   string
}

type OrderOutput struct {
	ID            int64      `json:"id"`
	BuyerID       int64      `json:"buyer_id"`
	ItemID        int64      `json:"item_id"`
	DriverID      *int64     `json:"driver_id"`
	Status        string     `json:"status"`
	PaymentMethod string     `json:"payment_method"`
	ItemPrice     int64      `json:"item_price"`
	DeliveryFee   int64      `json:"delivery_fee"`
	TotalPrice    int64      `json:"total_price"`
	DeliveredAt   *time.Time `json:"delivered_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

type OrderListOutput struct {
	Orders []OrderOutput `json:"orders"`
	Total  int64         `json:"total"`
}

// 注文を確定する。商品の予約と注文作成は1トランザクション
func (u *OrderUsecase) PlaceOrder(ctx context.Context, buyerID int64, in PlaceOrderInput) (OrderOutput, error) {
	if buyerID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ItemID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid item_id")
	}
	if in.DropoffAddressID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid dropoff_address_id")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	//同じキーの注文があればそれを返す（二重送信対策）
	if existing, found, err := u.orders.FindByIdempotencyKey(ctx, buyerID, key); err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	} else if found {
		return toOrderOutput(existing), nil
	}

	//配達先は購入者本人の住所限定
	owned, err := u.addresses.IsOwnedByUser(ctx, in.DropoffAddressID, buyerID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid dropoff_address_id")
	}

	var out OrderOutput

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		item, err := r.Items().FindByID(ctx, in.ItemID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "item not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if item.SellerID == buyerID {
			return NewHTTPError(http.StatusBadRequest, "cannot order own item")
		}
		if item.Status != model.ItemStatusAvailable {
			return NewHTTPError(http.StatusConflict, "item is not available")
		}

		//寄付品を受け取れるのはチャリティのみ
		if item.IsDonation {
			buyer, err := r.Users().FindByID(ctx, buyerID)
			if err != nil || buyer == nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if buyer.UserType != model.UserTypeCharity {
				return NewHTTPError(http.StatusForbidden, "donation items are for charities")
			}
		}

		//集荷元と配達先の座標から配送料を計算
		pickup, err := u.addresses.FindByID(ctx, item.PickupAddressID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		dropoff, err := u.addresses.FindByID(ctx, in.DropoffAddressID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		fee := CalcDeliveryFee(pickup.Lat, pickup.Lng, dropoff.Lat, dropoff.Lng)

		//AVAILABLE→RESERVED。0件更新なら他の注文が先に確定した
		if err := r.Items().UpdateStatusIf(ctx, item.ID, model.ItemStatusAvailable, model.ItemStatusReserved); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusConflict, "item is not available")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order := model.Order{
			BuyerID:          buyerID,
			ItemID:           item.ID,
			DropoffAddressID: in.DropoffAddressID,
			Status:           model.OrderStatusPending,
			PaymentMethod:    model.PaymentMethodCOD,
			ItemPrice:        item.Price,
			DeliveryFee:      fee,
			TotalPrice:       item.Price + fee,
			IdempotencyKey:   key,
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//出品者に通知
		_ = r.Notifications().Create(ctx, &model.Notification{
			UserID:  item.SellerID,
			Type:    model.NotificationOrderPlaced,
			Message: fmt.Sprintf("「%s」に注文が入りました", item.Title),
		})

		created, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(created)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 購入者の注文一覧
func (u *OrderUsecase) ListMine(ctx context.Context, buyerID int64, page int, limit int) (OrderListOutput, error) {
	if buyerID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 || limit < 1 || limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page or limit")
	}

	orders, total, err := u.orders.ListByBuyerID(ctx, buyerID, page, limit)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderListOutput(orders, total), nil
}

// PENDINGのうちは購入者がキャンセルできる。商品は出品中に戻す
func (u *OrderUsecase) Cancel(ctx context.Context, buyerID int64, orderID int64) error {
	if buyerID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if o.BuyerID != buyerID {
			return NewHTTPError(http.StatusForbidden, "not your order")
		}
		if o.Status != model.OrderStatusPending {
			return NewHTTPError(http.StatusConflict, "cannot cancel this order")
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCanceled); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Items().UpdateStatusIf(ctx, o.ItemID, model.ItemStatusReserved, model.ItemStatusAvailable); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}

// ドライバー未割当の注文一覧
func (u *OrderUsecase) ListOpen(ctx context.Context, page int, limit int) (OrderListOutput, error) {
	if page < 1 || limit < 1 || limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page or limit")
	}

	orders, total, err := u.orders.ListOpen(ctx, page, limit)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderListOutput(orders, total), nil
}

// ドライバーが配達を受ける（早い者勝ち）
func (u *OrderUsecase) Accept(ctx context.Context, driverID int64, orderID int64) error {
	if driverID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Orders().AssignDriverIf(ctx, orderID, driverID); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusConflict, "order already taken")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		_ = r.Notifications().Create(ctx, &model.Notification{
			UserID:  o.BuyerID,
			Type:    model.NotificationOrderAccepted,
			Message: "ドライバーが配達を受け付けました",
		})
		return nil
	})
}

// 担当ドライバーが配達状況を進める。
// ACCEPTED→IN_DELIVERY→DELIVERED以外の遷移は認めない
func (u *OrderUsecase) UpdateDeliveryStatus(ctx context.Context, driverID int64, orderID int64, status string) error {
	if driverID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.TrimSpace(status))
	if newStatus != model.OrderStatusInDelivery && newStatus != model.OrderStatusDelivered {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if o.DriverID == nil || *o.DriverID != driverID {
			return NewHTTPError(http.StatusForbidden, "not your delivery")
		}

		switch {
		case newStatus == model.OrderStatusInDelivery && o.Status == model.OrderStatusAccepted:
			if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

		case newStatus == model.OrderStatusDelivered && o.Status == model.OrderStatusInDelivery:
			if err := r.Orders().MarkDelivered(ctx, orderID, time.Now()); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			//商品を確定状態にする（寄付はDONATED、販売はSOLD）
			item, err := r.Items().FindByID(ctx, o.ItemID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			final := model.ItemStatusSold
			if item.IsDonation {
				final = model.ItemStatusDonated
			}
			if err := r.Items().UpdateStatusIf(ctx, o.ItemID, model.ItemStatusReserved, final); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			_ = r.Notifications().Create(ctx, &model.Notification{
				UserID:  o.BuyerID,
				Type:    model.NotificationOrderDelivered,
				Message: "注文が配達されました",
			})

		default:
			return NewHTTPError(http.StatusConflict, "invalid status transition")
		}

		return nil
	})
}

// ドライバー担当分の一覧
func (u *OrderUsecase) ListDeliveries(ctx context.Context, driverID int64, page int, limit int) (OrderListOutput, error) {
	if driverID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 || limit < 1 || limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page or limit")
	}

	orders, total, err := u.orders.ListByDriverID(ctx, driverID, page, limit)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toOrderListOutput(orders, total), nil
}

// Haversineで2点間の距離(km)を出す
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// 配送料を計算する（距離は切り上げてkm単価を掛ける）
func CalcDeliveryFee(pickupLat, pickupLng, dropoffLat, dropoffLng float64) int64 {
	dist := HaversineKm(pickupLat, pickupLng, dropoffLat, dropoffLng)
	return deliveryBaseFee + int64(math.Ceil(dist))*deliveryFeePerKm
}

func toOrderOutput(o model.Order) OrderOutput {
	return OrderOutput{
		ID:            o.ID,
		BuyerID:       o.BuyerID,
		ItemID:        o.ItemID,
		DriverID:      o.DriverID,
		Status:        string(o.Status),
		PaymentMethod: o.PaymentMethod,
		ItemPrice:     o.ItemPrice,
		DeliveryFee:   o.DeliveryFee,
		TotalPrice:    o.TotalPrice,
		DeliveredAt:   o.DeliveredAt,
		CreatedAt:     o.CreatedAt,
	}
}

func toOrderListOutput(orders []model.Order, total int64) OrderListOutput {
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o))
	}
	return OrderListOutput{Orders: outs, Total: total}
}
