package handler

import (
	"net/http"
	"strconv"

	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type FavoriteHandler struct {
	uc *usecase.FavoriteUsecase
}

func NewFavoriteHandler(uc *usecase.FavoriteUsecase) *FavoriteHandler {
	return &FavoriteHandler{uc: uc}
}

func (h *FavoriteHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/favorites", middleware.RequireAuth())
	g.GET("", h.list)
	g.POST("/:itemId", h.add)
	g.DELETE("/:itemId", h.remove)
}

func (h *FavoriteHandler) list(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context(), middleware.UserIDFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *FavoriteHandler) add(c echo.Context) error {
	itemID, err := strconv.ParseInt(c.Param("itemId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid item id"})
	}

	if err := h.uc.Add(c.Request().Context(), middleware.UserIDFrom(c), itemID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *FavoriteHandler) remove(c echo.Context) error {
	itemID, err := strconv.ParseInt(c.Param("itemId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid item id"})
	}

	if err := h.uc.Remove(c.Request().Context(), middleware.UserIDFrom(c), itemID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
