package usecase

import (
	"context"
	"net/http"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type AddressUsecase struct {
	addresses repo.AddressRepository
}

func NewAddressUsecase(addresses repo.AddressRepository) *AddressUsecase {
	return &AddressUsecase{addresses: addresses}
}

type AddressInput struct {
	Label     string
	Line      string
	City      string
	Lat       float64
	Lng       float64
	IsDefault bool
}

func validateAddressInput(in AddressInput) error {
	if strings.TrimSpace(in.Line) == "" {
		return NewHTTPError(http.StatusBadRequest, "line is required")
	}
	if strings.TrimSpace(in.City) == "" {
		return NewHTTPError(http.StatusBadRequest, "city is required")
	}
	//座標は配送料計算に必要
	if in.Lat < -90 || in.Lat > 90 {
		return NewHTTPError(http.StatusBadRequest, "invalid lat")
	}
	if in.Lng < -180 || in.Lng > 180 {
		return NewHTTPError(http.StatusBadRequest, "invalid lng")
	}
	return nil
}

func (u *AddressUsecase) Create(ctx context.Context, userID int64, in AddressInput) (model.Address, error) {
	if userID <= 0 {
		return model.Address{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validateAddressInput(in); err != nil {
		return model.Address{}, err
	}

	addr := model.Address{
		UserID:    userID,
		Label:     strings.TrimSpace(in.Label),
		Line:      strings.TrimSpace(in.Line),
		City:      strings.TrimSpace(in.City),
		Lat:       in.Lat,
		Lng:       in.Lng,
		IsDefault: in.IsDefault,
	}

	created, err := u.addresses.Create(ctx, addr)
	if err != nil {
		return model.Address{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if in.IsDefault {
		if err := u.addresses.SetDefault(ctx, userID, created.ID); err != nil {
			return model.Address{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		created.IsDefault = true
	}

	return created, nil
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]model.Address, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return list, nil
}

// 本人の住所だけ更新できる
func (u *AddressUsecase) Update(ctx context.Context, userID int64, addressID int64, in AddressInput) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validateAddressInput(in); err != nil {
		return err
	}

	owned, err := u.addresses.IsOwnedByUser(ctx, addressID, userID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	addr := model.Address{
		ID:    addressID,
		Label: strings.TrimSpace(in.Label),
		Line:  strings.TrimSpace(in.Line),
		City:  strings.TrimSpace(in.City),
		Lat:   in.Lat,
		Lng:   in.Lng,
	}

	if err := u.addresses.Update(ctx, addr); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if in.IsDefault {
		if err := u.addresses.SetDefault(ctx, userID, addressID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	return nil
}

func (u *AddressUsecase) Delete(ctx context.Context, userID int64, addressID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	owned, err := u.addresses.IsOwnedByUser(ctx, addressID, userID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !owned {
		return NewHTTPError(http.StatusNotFound, "not found")
	}

	if err := u.addresses.Delete(ctx, addressID); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
