package server

import (
	"app/internal/handler"
	"app/internal/middleware"
	"app/internal/token"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Handlers はルート登録対象をまとめて受け取る
type Handlers struct {
	Auth         *handler.AuthHandler
	Item         *handler.ItemHandler
	Favorite     *handler.FavoriteHandler
	Address      *handler.AddressHandler
	Order        *handler.OrderHandler
	Notification *handler.NotificationHandler
	Admin        *handler.AdminHandler
}

// New はechoを組み立てる。全リクエストで身元解決を通す
func New(codec *token.Codec, logger *zap.Logger, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.ResolveIdentity(codec))

	RegisterRoutes(e, h)
	return e
}

func Start(e *echo.Echo, addr string) error {
	return e.Start(addr)
}
