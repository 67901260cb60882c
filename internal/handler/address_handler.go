package handler

import (
	"net/http"
	"strconv"

	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AddressHandler struct {
	uc *usecase.AddressUsecase
}

func NewAddressHandler(uc *usecase.AddressUsecase) *AddressHandler {
	return &AddressHandler{uc: uc}
}

func (h *AddressHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/addresses", middleware.RequireAuth())
	g.GET("", h.list)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

type addressRequest struct {
	Label     string  `json:"label"`
	Line      string  `json:"line"`
	City      string  `json:"city"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	IsDefault bool    `json:"is_default"`
}

func (r addressRequest) toInput() usecase.AddressInput {
	return usecase.AddressInput{
		Label:     r.Label,
		Line:      r.Line,
		City:      r.City,
		Lat:       r.Lat,
		Lng:       r.Lng,
		IsDefault: r.IsDefault,
	}
}

func (h *AddressHandler) list(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context(), middleware.UserIDFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AddressHandler) create(c echo.Context) error {
	var req addressRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	out, err := h.uc.Create(c.Request().Context(), middleware.UserIDFrom(c), req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AddressHandler) update(c echo.Context) error {
	addressID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid address id"})
	}

	var req addressRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	if err := h.uc.Update(c.Request().Context(), middleware.UserIDFrom(c), addressID, req.toInput()); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AddressHandler) delete(c echo.Context) error {
	addressID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid address id"})
	}

	if err := h.uc.Delete(c.Request().Context(), middleware.UserIDFrom(c), addressID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
