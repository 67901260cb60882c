package handler

import (
	"net/http"
	"strings"

	"app/internal/middleware"
	"app/internal/token"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	uc    *usecase.AuthUsecase
	codec *token.Codec
}

// DIコンストラクタ
func NewAuthHandler(uc *usecase.AuthUsecase, codec *token.Codec) *AuthHandler {
	return &AuthHandler{uc: uc, codec: codec}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/auth/register", h.Register)
	e.POST("/auth/login", h.Login)
	e.POST("/auth/refresh", h.Refresh)
	e.GET("/auth/validate", h.Validate)
	e.POST("/auth/logout", h.Logout)

	//認証必須のルート
	authed := e.Group("/auth", middleware.RequireAuth())
	authed.POST("/logout-all", h.LogoutAll)
	authed.GET("/sessions", h.Sessions)
	authed.GET("/sessions/stats", h.Stats)
	authed.GET("/me", h.Me)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	Rotate       bool   `json:"rotate"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// POST /auth/register
func (h *AuthHandler) Register(c echo.Context) error {
	var req usecase.AuthRegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR"})
	}

	out, err := h.uc.Register(c.Request().Context(), req)
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

// POST /auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req usecase.AuthLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR"})
	}

	//User-AgentとIPを取得（refresh tokenに紐付ける）
	userAgent := c.Request().Header.Get("User-Agent")
	ip := c.RealIP()

	out, err := h.uc.Login(c.Request().Context(), req, userAgent, ip)
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR"})
	}

	out, err := h.uc.Refresh(c.Request().Context(), req.RefreshToken, req.Rotate)
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// GET /auth/validate
// Authorizationヘッダのaccess tokenを検証して結果を返す
func (h *AuthHandler) Validate(c echo.Context) error {
	authz := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHORIZED"})
	}

	out, err := h.uc.Validate(c.Request().Context(), strings.TrimSpace(parts[1]))
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// POST /auth/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR"})
	}

	out, err := h.uc.Logout(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// POST /auth/logout-all
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	userID := middleware.UserIDFrom(c)

	out, err := h.uc.LogoutAll(c.Request().Context(), userID)
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// GET /auth/sessions
func (h *AuthHandler) Sessions(c echo.Context) error {
	userID := middleware.UserIDFrom(c)

	out, err := h.uc.Sessions(c.Request().Context(), userID)
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// GET /auth/sessions/stats
func (h *AuthHandler) Stats(c echo.Context) error {
	userID := middleware.UserIDFrom(c)

	out, err := h.uc.Stats(c.Request().Context(), userID)
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// GET /auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	userID := middleware.UserIDFrom(c)

	out, err := h.uc.Me(c.Request().Context(), userID)
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
