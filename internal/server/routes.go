package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	h.Auth.RegisterRoutes(e)
	h.Item.RegisterRoutes(e)
	h.Favorite.RegisterRoutes(e)
	h.Address.RegisterRoutes(e)
	h.Order.RegisterRoutes(e)
	h.Notification.RegisterRoutes(e)
	h.Admin.RegisterRoutes(e)
}
