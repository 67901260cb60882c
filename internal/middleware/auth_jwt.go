package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"app/internal/token"

	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey   = "user_id"   // int64
	CtxUserTypeKey = "user_type" // string
	CtxVerifiedKey = "verified"  // bool
)

// リクエストから本人を解決するミドルウェア。
// 検証に失敗しても落とさず匿名のまま次へ進める。
// 認証必須のルートはRequireAuthで明示的に弾く
func ResolveIdentity(codec *token.Codec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractBearerToken(c)
			if raw == "" {
				return next(c)
			}

			claims, err := codec.Verify(raw)
			if err != nil {
				//匿名扱い。エラーは伝播させない
				return next(c)
			}

			//このリクエストの間だけcontextに保持する
			c.Set(CtxUserIDKey, claims.UserID)
			c.Set(CtxUserTypeKey, claims.UserType)
			c.Set(CtxVerifiedKey, claims.Verified)

			return next(c)
		}
	}
}

// トークンの取り出し。優先順位は
// 1) tokenクエリパラメータ 2) bodyのtokenフィールド 3) Authorization: Bearer
func extractBearerToken(c echo.Context) string {
	if v := c.QueryParam("token"); v != "" {
		return v
	}

	if v := tokenFromBody(c); v != "" {
		return v
	}

	authz := c.Request().Header.Get("Authorization")
	if authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	return ""
}

// JSON bodyのtokenフィールドを読む。
// bodyは後段のhandlerがもう一度読めるように戻しておく
func tokenFromBody(c echo.Context) string {
	req := c.Request()

	ct := req.Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
		return ""
	}
	if req.Body == nil {
		return ""
	}

	body, err := io.ReadAll(req.Body)
	req.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return ""
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	return payload.Token
}

// contextから本人のuser_idを取り出す。匿名なら0
func UserIDFrom(c echo.Context) int64 {
	id, ok := c.Get(CtxUserIDKey).(int64)
	if !ok {
		return 0
	}
	return id
}

func UserTypeFrom(c echo.Context) string {
	t, ok := c.Get(CtxUserTypeKey).(string)
	if !ok {
		return ""
	}
	return t
}

func VerifiedFrom(c echo.Context) bool {
	v, ok := c.Get(CtxVerifiedKey).(bool)
	return ok && v
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}
