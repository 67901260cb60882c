package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type ItemUsecase struct {
	itemRepo    repo.ItemRepository
	addressRepo repo.AddressRepository
}

func NewItemUsecase(itemRepo repo.ItemRepository, addressRepo repo.AddressRepository) *ItemUsecase {
	return &ItemUsecase{itemRepo: itemRepo, addressRepo: addressRepo}
}

type CreateItemInput struct {
	Title           string
	Description     string
	Category        string
	Size            string
	Condition       string
	Price           int64
	IsDonation      bool
	PickupAddressID int64
}

type ItemOutput struct {
	ID          int64     `json:"id"`
	SellerID    int64     `json:"seller_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Size        string    `json:"size"`
	Condition   string    `json:"condition"`
	Price       int64     `json:"price"`
	IsDonation  bool      `json:"is_donation"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type ItemListOutput struct {
	Items []ItemOutput `json:"items"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

// 出品を作成する（集荷元住所は出品者本人のもの限定）
func (u *ItemUsecase) Create(ctx context.Context, sellerID int64, in CreateItemInput) (ItemOutput, error) {
	if sellerID <= 0 {
		return ItemOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validateItemInput(in); err != nil {
		return ItemOutput{}, err
	}

	owned, err := u.addressRepo.IsOwnedByUser(ctx, in.PickupAddressID, sellerID)
	if err != nil {
		return ItemOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return ItemOutput{}, NewHTTPError(http.StatusBadRequest, "invalid pickup_address_id")
	}

	item := model.Item{
		SellerID:        sellerID,
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		Category:        strings.TrimSpace(in.Category),
		Size:            in.Size,
		Condition:       model.ItemCondition(in.Condition),
		Price:           in.Price,
		IsDonation:      in.IsDonation,
		Status:          model.ItemStatusAvailable,
		PickupAddressID: in.PickupAddressID,
	}

	if err := u.itemRepo.Create(ctx, &item); err != nil {
		return ItemOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toItemOutput(item), nil
}

// 公開一覧
func (u *ItemUsecase) List(ctx context.Context, f repo.ItemListFilter) (ItemListOutput, error) {
	if f.Page < 1 {
		return ItemListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return ItemListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	items, total, err := u.itemRepo.List(ctx, f)
	if err != nil {
		return ItemListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]ItemOutput, 0, len(items))
	for _, it := range items {
		outs = append(outs, toItemOutput(it))
	}

	return ItemListOutput{Items: outs, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (u *ItemUsecase) Detail(ctx context.Context, itemID int64) (ItemOutput, error) {
	if itemID <= 0 {
		return ItemOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	it, err := u.itemRepo.FindByID(ctx, itemID)
	if err == repo.ErrNotFound {
		return ItemOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ItemOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toItemOutput(it), nil
}

// 出品者本人だけが更新できる。売却済みは変更不可
func (u *ItemUsecase) Update(ctx context.Context, sellerID int64, itemID int64, in CreateItemInput) (ItemOutput, error) {
	if sellerID <= 0 {
		return ItemOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validateItemInput(in); err != nil {
		return ItemOutput{}, err
	}

	it, err := u.itemRepo.FindByID(ctx, itemID)
	if err == repo.ErrNotFound {
		return ItemOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ItemOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if it.SellerID != sellerID {
		return ItemOutput{}, NewHTTPError(http.StatusForbidden, "not owner")
	}
	if it.Status != model.ItemStatusAvailable {
		return ItemOutput{}, NewHTTPError(http.StatusConflict, "item is not available")
	}

	it.Title = strings.TrimSpace(in.Title)
	it.Description = in.Description
	it.Category = strings.TrimSpace(in.Category)
	it.Size = in.Size
	it.Condition = model.ItemCondition(in.Condition)
	it.Price = in.Price
	it.IsDonation = in.IsDonation
	it.PickupAddressID = in.PickupAddressID

	if err := u.itemRepo.Update(ctx, it); err != nil {
		return ItemOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toItemOutput(it), nil
}

// 出品者本人だけが削除できる
func (u *ItemUsecase) Delete(ctx context.Context, sellerID int64, itemID int64) error {
	if sellerID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	it, err := u.itemRepo.FindByID(ctx, itemID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if it.SellerID != sellerID {
		return NewHTTPError(http.StatusForbidden, "not owner")
	}
	if it.Status == model.ItemStatusReserved {
		return NewHTTPError(http.StatusConflict, "item has an active order")
	}

	if err := u.itemRepo.Delete(ctx, itemID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func validateItemInput(in CreateItemInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if strings.TrimSpace(in.Category) == "" {
		return NewHTTPError(http.StatusBadRequest, "category is required")
	}
	switch model.ItemCondition(in.Condition) {
	case model.ItemConditionNew, model.ItemConditionLikeNew, model.ItemConditionGood, model.ItemConditionFair:
		// OK
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid condition")
	}
	if in.Price < 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid price")
	}
	//寄付は価格0、販売は価格必須
	if in.IsDonation && in.Price != 0 {
		return NewHTTPError(http.StatusBadRequest, "donation item must have price 0")
	}
	if !in.IsDonation && in.Price == 0 {
		return NewHTTPError(http.StatusBadRequest, "price is required")
	}
	if in.PickupAddressID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid pickup_address_id")
	}
	return nil
}

func toItemOutput(it model.Item) ItemOutput {
	return ItemOutput{
		ID:          it.ID,
		SellerID:    it.SellerID,
		Title:       it.Title,
		Description: it.Description,
		Category:    it.Category,
		Size:        it.Size,
		Condition:   string(it.Condition),
		Price:       it.Price,
		IsDonation:  it.IsDonation,
		Status:      string(it.Status),
		CreatedAt:   it.CreatedAt,
	}
}
