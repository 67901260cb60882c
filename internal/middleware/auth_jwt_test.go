package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"app/internal/token"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func testCodec() *token.Codec {
	return token.NewCodec([]byte("middleware-test"), time.Hour)
}

// ResolveIdentityを通した後のcontextを返す
func resolve(t *testing.T, codec *token.Codec, req *http.Request) echo.Context {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := ResolveIdentity(codec)
	err := mw(func(c echo.Context) error { return nil })(c)
	assert.NoError(t, err)

	return c
}

func TestResolveIdentity_FromAuthorizationHeader(t *testing.T) {
	codec := testCodec()
	raw, _, err := codec.Issue(42, "USER", false)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set("Authorization", "Bearer "+raw)

	c := resolve(t, codec, req)
	assert.Equal(t, int64(42), UserIDFrom(c))
	assert.Equal(t, "USER", UserTypeFrom(c))
	assert.False(t, VerifiedFrom(c))
}

func TestResolveIdentity_FromQueryParam(t *testing.T) {
	codec := testCodec()
	raw, _, err := codec.Issue(7, "ADMIN", false)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/items?token="+raw, nil)

	c := resolve(t, codec, req)
	assert.Equal(t, int64(7), UserIDFrom(c))
	assert.Equal(t, "ADMIN", UserTypeFrom(c))
}

func TestResolveIdentity_FromJSONBody(t *testing.T) {
	codec := testCodec()
	raw, _, err := codec.Issue(9, "DRIVER", true)
	assert.NoError(t, err)

	body := `{"token":"` + raw + `"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/validate", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	c := resolve(t, codec, req)
	assert.Equal(t, int64(9), UserIDFrom(c))
	assert.True(t, VerifiedFrom(c))
}

func TestResolveIdentity_QueryBeatsHeader(t *testing.T) {
	codec := testCodec()
	fromQuery, _, err := codec.Issue(1, "USER", false)
	assert.NoError(t, err)
	fromHeader, _, err := codec.Issue(2, "USER", false)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/items?token="+fromQuery, nil)
	req.Header.Set("Authorization", "Bearer "+fromHeader)

	//クエリが最優先
	c := resolve(t, codec, req)
	assert.Equal(t, int64(1), UserIDFrom(c))
}

func TestResolveIdentity_BodyBeatsHeader(t *testing.T) {
	codec := testCodec()
	fromBody, _, err := codec.Issue(3, "USER", false)
	assert.NoError(t, err)
	fromHeader, _, err := codec.Issue(4, "USER", false)
	assert.NoError(t, err)

	body := `{"token":"` + fromBody + `"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/validate", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", "Bearer "+fromHeader)

	c := resolve(t, codec, req)
	assert.Equal(t, int64(3), UserIDFrom(c))
}

func TestResolveIdentity_InvalidTokenIsAnonymous(t *testing.T) {
	codec := testCodec()

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	req.Header.Set("Authorization", "Bearer not-a-valid-token")

	//失敗してもリクエストは落とさない
	c := resolve(t, codec, req)
	assert.Equal(t, int64(0), UserIDFrom(c))
	assert.Equal(t, "", UserTypeFrom(c))
}

func TestResolveIdentity_NoTokenIsAnonymous(t *testing.T) {
	codec := testCodec()

	req := httptest.NewRequest(http.MethodGet, "/items", nil)

	c := resolve(t, codec, req)
	assert.Equal(t, int64(0), UserIDFrom(c))
}

func TestResolveIdentity_BodyIsRestoredForHandler(t *testing.T) {
	codec := testCodec()
	raw, _, err := codec.Issue(5, "USER", false)
	assert.NoError(t, err)

	body := `{"token":"` + raw + `","rotate":true}`
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	//handlerがもう一度bodyをbindできること
	var seen struct {
		Token  string `json:"token"`
		Rotate bool   `json:"rotate"`
	}
	mw := ResolveIdentity(codec)
	err = mw(func(c echo.Context) error {
		return c.Bind(&seen)
	})(c)

	assert.NoError(t, err)
	assert.Equal(t, raw, seen.Token)
	assert.True(t, seen.Rotate)
}
