package handler

import (
	"errors"
	"net/http"

	"app/internal/token"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// marketplace系usecaseのHTTPErrorをそのままステータスへ
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// auth系の失敗種別をステータスへ変換する。
// token失効・期限切れ・不正の区別はクライアントに返さない（全部401）
func writeAuthError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, validator.ErrInvalidInput),
		errors.Is(err, validator.ErrInvalidRefresh),
		errors.Is(err, usecase.ErrValidation):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR"})

	case errors.Is(err, validator.ErrEmailAlreadyUsed),
		errors.Is(err, usecase.ErrConflict):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "CONFLICT"})

	case errors.Is(err, usecase.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "FORBIDDEN"})

	case errors.Is(err, token.ErrMalformed),
		errors.Is(err, token.ErrSignatureInvalid),
		errors.Is(err, token.ErrExpired),
		errors.Is(err, token.ErrNotFound),
		errors.Is(err, token.ErrRevoked),
		errors.Is(err, usecase.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED"})

	case errors.Is(err, token.ErrStorageUnavailable):
		//DB障害は401にしない
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "SERVICE_UNAVAILABLE"})

	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "INTERNAL"})
	}
}
