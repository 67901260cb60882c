package handler

import (
	"net/http"
	"strconv"

	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 購入者向けの /orders と、配達員向けの /deliveries をまとめて持つ
type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo) {
	orders := e.Group("/orders", middleware.RequireAuth())
	orders.POST("", h.place)
	orders.GET("", h.listMine)
	orders.POST("/:id/cancel", h.cancel)

	//配達系は認証済みの検証済みドライバーのみ
	deliveries := e.Group("/deliveries", middleware.RequireAuth(), middleware.VerifiedDriverGuard())
	deliveries.GET("/open", h.listOpen)
	deliveries.POST("/:id/accept", h.accept)
	deliveries.PUT("/:id/status", h.updateStatus)
	deliveries.GET("/mine", h.listDeliveries)
}

type placeOrderRequest struct {
	ItemID           int64 `json:"item_id"`
	DropoffAddressID int64 `json:"dropoff_address_id"`
}

func (h *OrderHandler) place(c echo.Context) error {
	var req placeOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	out, err := h.uc.PlaceOrder(c.Request().Context(), middleware.UserIDFrom(c), usecase.PlaceOrderInput{
		ItemID:           req.ItemID,
		DropoffAddressID: req.DropoffAddressID,
		IdempotencyKey:   c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) listMine(c echo.Context) error {
	page, limit := pagination(c)
	out, err := h.uc.ListMine(c.Request().Context(), middleware.UserIDFrom(c), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) cancel(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid order id"})
	}

	if err := h.uc.Cancel(c.Request().Context(), middleware.UserIDFrom(c), orderID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHandler) listOpen(c echo.Context) error {
	page, limit := pagination(c)
	out, err := h.uc.ListOpen(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) accept(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid order id"})
	}

	if err := h.uc.Accept(c.Request().Context(), middleware.UserIDFrom(c), orderID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type deliveryStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) updateStatus(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid order id"})
	}

	var req deliveryStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	if err := h.uc.UpdateDeliveryStatus(c.Request().Context(), middleware.UserIDFrom(c), orderID, req.Status); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHandler) listDeliveries(c echo.Context) error {
	page, limit := pagination(c)
	out, err := h.uc.ListDeliveries(c.Request().Context(), middleware.UserIDFrom(c), page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
