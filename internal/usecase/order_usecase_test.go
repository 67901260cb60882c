package usecase

import (
	"context"
	"math"
	"net/http"
	"testing"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mock: ItemRepository
// =====================

type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) Create(ctx context.Context, item *model.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) FindByID(ctx context.Context, itemID int64) (model.Item, error) {
	args := m.Called(ctx, itemID)
	item, _ := args.Get(0).(model.Item)
	return item, args.Error(1)
}

func (m *MockItemRepository) List(ctx context.Context, f repo.ItemListFilter) ([]model.Item, int64, error) {
	args := m.Called(ctx, f)
	list, _ := args.Get(0).([]model.Item)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *MockItemRepository) Update(ctx context.Context, item model.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockItemRepository) UpdateStatusIf(ctx context.Context, itemID int64, from model.ItemStatus, to model.ItemStatus) error {
	args := m.Called(ctx, itemID, from, to)
	return args.Error(0)
}

func (m *MockItemRepository) Delete(ctx context.Context, itemID int64) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

// =====================
// Mock: OrderRepository
// =====================

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) ListByBuyerID(ctx context.Context, buyerID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, buyerID, page, limit)
	list, _ := args.Get(0).([]model.Order)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) ListByDriverID(ctx context.Context, driverID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, driverID, page, limit)
	list, _ := args.Get(0).([]model.Order)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) ListOpen(ctx context.Context, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, page, limit)
	list, _ := args.Get(0).([]model.Order)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *MockOrderRepository) MarkDelivered(ctx context.Context, orderID int64, deliveredAt time.Time) error {
	args := m.Called(ctx, orderID, deliveredAt)
	return args.Error(0)
}

func (m *MockOrderRepository) AssignDriverIf(ctx context.Context, orderID int64, driverID int64) error {
	args := m.Called(ctx, orderID, driverID)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByIdempotencyKey(ctx context.Context, buyerID int64, key string) (model.Order, bool, error) {
	args := m.Called(ctx, buyerID, key)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
}

func (m *MockOrderRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	list, _ := args.Get(0).([]model.Order)
	return list, args.Get(1).(int64), args.Error(2)
}

// ========================
// Mock: AddressRepository
// ========================

type MockAddressRepository struct {
	mock.Mock
}

func (m *MockAddressRepository) Create(ctx context.Context, address model.Address) (model.Address, error) {
	args := m.Called(ctx, address)
	a, _ := args.Get(0).(model.Address)
	return a, args.Error(1)
}

func (m *MockAddressRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]model.Address)
	return list, args.Error(1)
}

func (m *MockAddressRepository) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	args := m.Called(ctx, addressID)
	a, _ := args.Get(0).(model.Address)
	return a, args.Error(1)
}

func (m *MockAddressRepository) Update(ctx context.Context, address model.Address) error {
	args := m.Called(ctx, address)
	return args.Error(0)
}

func (m *MockAddressRepository) Delete(ctx context.Context, addressID int64) error {
	args := m.Called(ctx, addressID)
	return args.Error(0)
}

func (m *MockAddressRepository) IsOwnedByUser(ctx context.Context, addressID, userID int64) (bool, error) {
	args := m.Called(ctx, addressID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAddressRepository) SetDefault(ctx context.Context, userID, addressID int64) error {
	args := m.Called(ctx, userID, addressID)
	return args.Error(0)
}

// =============================
// Mock: NotificationRepository
// =============================

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByUserID(ctx context.Context, userID int64, unreadOnly bool, page int, limit int) ([]model.Notification, int64, error) {
	args := m.Called(ctx, userID, unreadOnly, page, limit)
	list, _ := args.Get(0).([]model.Notification)
	return list, args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, userID int64, notificationID int64, readAt time.Time) error {
	args := m.Called(ctx, userID, notificationID, readAt)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID int64, readAt time.Time) (int64, error) {
	args := m.Called(ctx, userID, readAt)
	return args.Get(0).(int64), args.Error(1)
}

// =====================
// Helpers
// =====================

type orderTxRepos struct {
	users  repo.UserRepository
	items  repo.ItemRepository
	orders repo.OrderRepository
	notes  repo.NotificationRepository
}

func (f orderTxRepos) Users() repo.UserRepository                 { return f.users }
func (f orderTxRepos) RefreshTokens() repo.RefreshTokenRepository { return nil }
func (f orderTxRepos) Items() repo.ItemRepository                 { return f.items }
func (f orderTxRepos) Orders() repo.OrderRepository               { return f.orders }
func (f orderTxRepos) Notifications() repo.NotificationRepository { return f.notes }

type orderTxManager struct {
	repos orderTxRepos
}

func (f *orderTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(f.repos)
}

type orderFixture struct {
	uc     *OrderUsecase
	users  *MockUserRepository
	items  *MockItemRepository
	orders *MockOrderRepository
	addrs  *MockAddressRepository
	notes  *MockNotificationRepository
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	users := new(MockUserRepository)
	items := new(MockItemRepository)
	orders := new(MockOrderRepository)
	addrs := new(MockAddressRepository)
	notes := new(MockNotificationRepository)

	//通知は失敗しても本処理に影響しない
	notes.On("Create", mock.Anything, mock.Anything).Return(nil).Maybe()

	tx := &orderTxManager{repos: orderTxRepos{users: users, items: items, orders: orders, notes: notes}}
	uc := NewOrderUsecase(tx, users, addrs, orders)

	return &orderFixture{uc: uc, users: users, items: items, orders: orders, addrs: addrs, notes: notes}
}

func availableItem() model.Item {
	return model.Item{
		ID:              100,
		SellerID:        1,
		Title:           "デニムジャケット",
		Category:        "outer",
		Price:           2500,
		Status:          model.ItemStatusAvailable,
		PickupAddressID: 50,
	}
}

func assertHTTPStatus(t *testing.T, err error, status int) {
	t.Helper()
	he, ok := AsHTTPError(err)
	assert.True(t, ok, "expected HTTPError, got %v", err)
	assert.Equal(t, status, he.Status)
}

// =====================
// Delivery fee
// =====================

func TestHaversineKm(t *testing.T) {
	//同一地点は0
	assert.InDelta(t, 0, HaversineKm(35.68, 139.76, 35.68, 139.76), 0.001)

	//東京駅→横浜駅はだいたい27km
	d := HaversineKm(35.6812, 139.7671, 35.4657, 139.6223)
	assert.InDelta(t, 27.0, d, 1.5)

	//緯度1度はおよそ111km
	d = HaversineKm(0, 0, 1, 0)
	assert.InDelta(t, 111.2, d, 0.5)
}

func TestCalcDeliveryFee(t *testing.T) {
	//距離0でも基本料金はかかる
	assert.Equal(t, int64(300), CalcDeliveryFee(35.68, 139.76, 35.68, 139.76))

	//緯度1度（約111.2km）→切り上げ112km
	fee := CalcDeliveryFee(0, 0, 1, 0)
	dist := HaversineKm(0, 0, 1, 0)
	want := int64(300) + int64(math.Ceil(dist))*50
	assert.Equal(t, want, fee)
}

// =====================
// PlaceOrder
// =====================

func TestOrderUsecase_PlaceOrder_Success(t *testing.T) {
	f := newOrderFixture(t)
	item := availableItem()

	f.orders.On("FindByIdempotencyKey", mock.Anything, int64(2), "key-1").Return(model.Order{}, false, nil)
	f.addrs.On("IsOwnedByUser", mock.Anything, int64(60), int64(2)).Return(true, nil)
	f.items.On("FindByID", mock.Anything, item.ID).Return(item, nil)
	f.addrs.On("FindByID", mock.Anything, int64(50)).Return(model.Address{ID: 50, Lat: 35.68, Lng: 139.76}, nil)
	f.addrs.On("FindByID", mock.Anything, int64(60)).Return(model.Address{ID: 60, Lat: 35.68, Lng: 139.76}, nil)
	f.items.On("UpdateStatusIf", mock.Anything, item.ID, model.ItemStatusAvailable, model.ItemStatusReserved).Return(nil)

	var created model.Order
	f.orders.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(model.Order)
	}).Return(int64(900), nil)
	f.orders.On("FindByID", mock.Anything, int64(900)).Return(model.Order{
		ID:      900,
		BuyerID: 2,
		ItemID:  item.ID,
		Status:  model.OrderStatusPending,
	}, nil)

	out, err := f.uc.PlaceOrder(context.Background(), 2, PlaceOrderInput{
		ItemID:           item.ID,
		DropoffAddressID: 60,
		IdempotencyKey:   "key-1",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(900), out.ID)

	//同一地点なので配送料は基本料金のみ
	assert.Equal(t, int64(300), created.DeliveryFee)
	assert.Equal(t, item.Price, created.ItemPrice)
	assert.Equal(t, item.Price+300, created.TotalPrice)
	assert.Equal(t, model.OrderStatusPending, created.Status)
	assert.Equal(t, model.PaymentMethodCOD, created.PaymentMethod)
}

func TestOrderUsecase_PlaceOrder_IdempotentReplay(t *testing.T) {
	f := newOrderFixture(t)

	//同じキーなら既存注文をそのまま返す
	f.orders.On("FindByIdempotencyKey", mock.Anything, int64(2), "key-1").Return(model.Order{
		ID:      900,
		BuyerID: 2,
		Status:  model.OrderStatusPending,
	}, true, nil)

	out, err := f.uc.PlaceOrder(context.Background(), 2, PlaceOrderInput{
		ItemID:           100,
		DropoffAddressID: 60,
		IdempotencyKey:   "key-1",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(900), out.ID)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderUsecase_PlaceOrder_OwnItem(t *testing.T) {
	f := newOrderFixture(t)
	item := availableItem()

	f.orders.On("FindByIdempotencyKey", mock.Anything, item.SellerID, "key-1").Return(model.Order{}, false, nil)
	f.addrs.On("IsOwnedByUser", mock.Anything, int64(60), item.SellerID).Return(true, nil)
	f.items.On("FindByID", mock.Anything, item.ID).Return(item, nil)

	_, err := f.uc.PlaceOrder(context.Background(), item.SellerID, PlaceOrderInput{
		ItemID:           item.ID,
		DropoffAddressID: 60,
		IdempotencyKey:   "key-1",
	})
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

func TestOrderUsecase_PlaceOrder_ItemNotAvailable(t *testing.T) {
	f := newOrderFixture(t)
	item := availableItem()
	item.Status = model.ItemStatusReserved

	f.orders.On("FindByIdempotencyKey", mock.Anything, int64(2), "key-1").Return(model.Order{}, false, nil)
	f.addrs.On("IsOwnedByUser", mock.Anything, int64(60), int64(2)).Return(true, nil)
	f.items.On("FindByID", mock.Anything, item.ID).Return(item, nil)

	_, err := f.uc.PlaceOrder(context.Background(), 2, PlaceOrderInput{
		ItemID:           item.ID,
		DropoffAddressID: 60,
		IdempotencyKey:   "key-1",
	})
	assertHTTPStatus(t, err, http.StatusConflict)
}

func TestOrderUsecase_PlaceOrder_LosesReservationRace(t *testing.T) {
	f := newOrderFixture(t)
	item := availableItem()

	f.orders.On("FindByIdempotencyKey", mock.Anything, int64(2), "key-1").Return(model.Order{}, false, nil)
	f.addrs.On("IsOwnedByUser", mock.Anything, int64(60), int64(2)).Return(true, nil)
	f.items.On("FindByID", mock.Anything, item.ID).Return(item, nil)
	f.addrs.On("FindByID", mock.Anything, mock.Anything).Return(model.Address{}, nil)

	//guarded updateが0件＝他の注文が先に予約した
	f.items.On("UpdateStatusIf", mock.Anything, item.ID, model.ItemStatusAvailable, model.ItemStatusReserved).Return(repo.ErrNotFound)

	_, err := f.uc.PlaceOrder(context.Background(), 2, PlaceOrderInput{
		ItemID:           item.ID,
		DropoffAddressID: 60,
		IdempotencyKey:   "key-1",
	})
	assertHTTPStatus(t, err, http.StatusConflict)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderUsecase_PlaceOrder_DonationRequiresCharity(t *testing.T) {
	f := newOrderFixture(t)
	item := availableItem()
	item.IsDonation = true
	item.Price = 0

	f.orders.On("FindByIdempotencyKey", mock.Anything, int64(2), "key-1").Return(model.Order{}, false, nil)
	f.addrs.On("IsOwnedByUser", mock.Anything, int64(60), int64(2)).Return(true, nil)
	f.items.On("FindByID", mock.Anything, item.ID).Return(item, nil)
	f.users.On("FindByID", mock.Anything, int64(2)).Return(&model.User{
		ID:       2,
		UserType: model.UserTypeUser,
		IsActive: true,
	}, nil)

	_, err := f.uc.PlaceOrder(context.Background(), 2, PlaceOrderInput{
		ItemID:           item.ID,
		DropoffAddressID: 60,
		IdempotencyKey:   "key-1",
	})
	assertHTTPStatus(t, err, http.StatusForbidden)
}

func TestOrderUsecase_PlaceOrder_ForeignDropoffAddress(t *testing.T) {
	f := newOrderFixture(t)

	f.orders.On("FindByIdempotencyKey", mock.Anything, int64(2), "key-1").Return(model.Order{}, false, nil)
	//他人の住所は配達先に指定できない
	f.addrs.On("IsOwnedByUser", mock.Anything, int64(60), int64(2)).Return(false, nil)

	_, err := f.uc.PlaceOrder(context.Background(), 2, PlaceOrderInput{
		ItemID:           100,
		DropoffAddressID: 60,
		IdempotencyKey:   "key-1",
	})
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

// =====================
// Accept / delivery flow
// =====================

func TestOrderUsecase_Accept_FirstDriverWins(t *testing.T) {
	f := newOrderFixture(t)

	f.orders.On("AssignDriverIf", mock.Anything, int64(900), int64(5)).Return(nil)
	f.orders.On("FindByID", mock.Anything, int64(900)).Return(model.Order{ID: 900, BuyerID: 2}, nil)

	err := f.uc.Accept(context.Background(), 5, 900)
	assert.NoError(t, err)
}

func TestOrderUsecase_Accept_AlreadyTaken(t *testing.T) {
	f := newOrderFixture(t)

	//先に別のドライバーが割り当て済み
	f.orders.On("AssignDriverIf", mock.Anything, int64(900), int64(5)).Return(repo.ErrNotFound)

	err := f.uc.Accept(context.Background(), 5, 900)
	assertHTTPStatus(t, err, http.StatusConflict)
}

func TestOrderUsecase_UpdateDeliveryStatus_Delivered(t *testing.T) {
	f := newOrderFixture(t)
	driverID := int64(5)
	item := availableItem()
	item.Status = model.ItemStatusReserved

	f.orders.On("FindByID", mock.Anything, int64(900)).Return(model.Order{
		ID:       900,
		BuyerID:  2,
		ItemID:   item.ID,
		DriverID: &driverID,
		Status:   model.OrderStatusInDelivery,
	}, nil)
	f.orders.On("MarkDelivered", mock.Anything, int64(900), mock.Anything).Return(nil)
	f.items.On("FindByID", mock.Anything, item.ID).Return(item, nil)
	f.items.On("UpdateStatusIf", mock.Anything, item.ID, model.ItemStatusReserved, model.ItemStatusSold).Return(nil)

	err := f.uc.UpdateDeliveryStatus(context.Background(), driverID, 900, "DELIVERED")
	assert.NoError(t, err)
}

func TestOrderUsecase_UpdateDeliveryStatus_NotYourDelivery(t *testing.T) {
	f := newOrderFixture(t)
	other := int64(9)

	f.orders.On("FindByID", mock.Anything, int64(900)).Return(model.Order{
		ID:       900,
		DriverID: &other,
		Status:   model.OrderStatusAccepted,
	}, nil)

	err := f.uc.UpdateDeliveryStatus(context.Background(), 5, 900, "IN_DELIVERY")
	assertHTTPStatus(t, err, http.StatusForbidden)
}

func TestOrderUsecase_UpdateDeliveryStatus_InvalidTransition(t *testing.T) {
	f := newOrderFixture(t)
	driverID := int64(5)

	f.orders.On("FindByID", mock.Anything, int64(900)).Return(model.Order{
		ID:       900,
		DriverID: &driverID,
		Status:   model.OrderStatusAccepted,
	}, nil)

	//ACCEPTEDから一気にDELIVEREDへは進めない
	err := f.uc.UpdateDeliveryStatus(context.Background(), driverID, 900, "DELIVERED")
	assertHTTPStatus(t, err, http.StatusConflict)
}

// =====================
// Cancel
// =====================

func TestOrderUsecase_Cancel_PendingOnly(t *testing.T) {
	f := newOrderFixture(t)

	f.orders.On("FindByID", mock.Anything, int64(900)).Return(model.Order{
		ID:      900,
		BuyerID: 2,
		ItemID:  100,
		Status:  model.OrderStatusAccepted,
	}, nil)

	//ドライバーが受けた後はキャンセル不可
	err := f.uc.Cancel(context.Background(), 2, 900)
	assertHTTPStatus(t, err, http.StatusConflict)
}

func TestOrderUsecase_Cancel_ReleasesItem(t *testing.T) {
	f := newOrderFixture(t)

	f.orders.On("FindByID", mock.Anything, int64(900)).Return(model.Order{
		ID:      900,
		BuyerID: 2,
		ItemID:  100,
		Status:  model.OrderStatusPending,
	}, nil)
	f.orders.On("UpdateStatus", mock.Anything, int64(900), model.OrderStatusCanceled).Return(nil)
	f.items.On("UpdateStatusIf", mock.Anything, int64(100), model.ItemStatusReserved, model.ItemStatusAvailable).Return(nil)

	err := f.uc.Cancel(context.Background(), 2, 900)
	assert.NoError(t, err)
}
