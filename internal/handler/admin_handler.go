package handler

import (
	"net/http"
	"strconv"
	"time"

	"app/internal/domain/model"
	"app/internal/middleware"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin 配下。全ルートがAdminRoleGuardを通る
type AdminHandler struct {
	users  *usecase.AdminUserUsecase
	orders *usecase.AdminOrderUsecase
}

func NewAdminHandler(users *usecase.AdminUserUsecase, orders *usecase.AdminOrderUsecase) *AdminHandler {
	return &AdminHandler{users: users, orders: orders}
}

func (h *AdminHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/admin", middleware.RequireAuth(), middleware.AdminRoleGuard())
	g.POST("/charities", h.createCharity)
	g.POST("/drivers/:id/verify", h.verifyDriver)
	g.POST("/users/:id/deactivate", h.deactivateUser)
	g.GET("/audit-logs", h.listAuditLogs)
	g.GET("/orders", h.listOrders)
}

type createCharityRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AdminHandler) createCharity(c echo.Context) error {
	var req createCharityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	out, err := h.users.CreateCharity(c.Request().Context(), middleware.UserIDFrom(c), usecase.CreateCharityInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminHandler) verifyDriver(c echo.Context) error {
	driverID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid driver id"})
	}

	out, err := h.users.VerifyDriver(c.Request().Context(), middleware.UserIDFrom(c), driverID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) deactivateUser(c echo.Context) error {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
	}

	out, err := h.users.DeactivateUser(c.Request().Context(), middleware.UserIDFrom(c), targetID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) listAuditLogs(c echo.Context) error {
	page, limit := pagination(c)
	f := repo.AuditLogFilter{
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	if v := c.QueryParam("actor_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid actor_id"})
		}
		f.ActorUserID = &id
	}
	if v := c.QueryParam("action"); v != "" {
		a := model.AuditAction(v)
		f.Action = &a
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from"})
		}
		f.CreatedFrom = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to"})
		}
		f.CreatedTo = &t
	}

	out, err := h.users.ListAuditLogs(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) listOrders(c echo.Context) error {
	page, limit := pagination(c)
	f := repo.AdminOrderListFilter{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
	}

	if v := c.QueryParam("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
		}
		f.UserID = &id
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from"})
		}
		f.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to"})
		}
		f.To = &t
	}

	out, err := h.orders.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
