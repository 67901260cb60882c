package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// page/limitのクエリをまとめて読む。不正値はデフォルトに落とす
func pagination(c echo.Context) (int, int) {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}

	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	return page, limit
}
