package middleware

import (
	"net/http"

	"app/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// 認証必須のルートで匿名を弾く
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserIDFrom(c) <= 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			return next(c)
		}
	}
}

//contextに入っているuser_typeがADMINかどうかを確認します。

func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userType := UserTypeFrom(c)
			if userType == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//ADMINだけ許可
			if userType != string(model.UserTypeAdmin) {
				return c.JSON(http.StatusForbidden, errorJSON("admin only"))
			}

			return next(c)
		}
	}
}

// 本人確認済みのドライバーだけ許可
func VerifiedDriverGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userType := UserTypeFrom(c)
			if userType == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			if userType != string(model.UserTypeDriver) || !VerifiedFrom(c) {
				return c.JSON(http.StatusForbidden, errorJSON("verified driver only"))
			}

			return next(c)
		}
	}
}
