package handler

import (
	"net/http"
	"strconv"

	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	uc *usecase.NotificationUsecase
}

func NewNotificationHandler(uc *usecase.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

func (h *NotificationHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/notifications", middleware.RequireAuth())
	g.GET("", h.list)
	g.POST("/:id/read", h.markRead)
	g.POST("/read-all", h.markAllRead)
}

func (h *NotificationHandler) list(c echo.Context) error {
	page, limit := pagination(c)
	unreadOnly := c.QueryParam("unread") == "true"

	out, err := h.uc.List(c.Request().Context(), middleware.UserIDFrom(c), unreadOnly, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *NotificationHandler) markRead(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid notification id"})
	}

	if err := h.uc.MarkRead(c.Request().Context(), middleware.UserIDFrom(c), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *NotificationHandler) markAllRead(c echo.Context) error {
	out, err := h.uc.MarkAllRead(c.Request().Context(), middleware.UserIDFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
