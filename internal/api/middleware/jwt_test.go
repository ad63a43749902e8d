package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/application"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/user"
)

var testSecret = []byte("test-secret")

func signTestToken(t *testing.T, role user.Role, expiresIn time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := application.Claims{
		Email:    "taro@example.com",
		FullName: "山田太郎",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func invokeWithAuth(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*echo.HTTPError, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	err := mw(next)(c)
	if err == nil {
		return nil, c
	}
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	return he, c
}

func TestJWTAuth(t *testing.T) {
	mw := JWTAuth(testSecret)

	t.Run("有効なトークンでクレームが格納される", func(t *testing.T) {
		token := signTestToken(t, user.RoleUser, time.Hour)

		he, c := invokeWithAuth(t, mw, "Bearer "+token)

		require.Nil(t, he)
		claims, ok := ClaimsFrom(c)
		require.True(t, ok)
		assert.Equal(t, "user-1", claims.Subject)
		assert.Equal(t, user.RoleUser, claims.Role)
	})

	t.Run("ヘッダーなしは401", func(t *testing.T) {
		he, _ := invokeWithAuth(t, mw, "")
		require.NotNil(t, he)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("Bearer形式でないヘッダーは401", func(t *testing.T) {
		he, _ := invokeWithAuth(t, mw, "Basic dXNlcjpwYXNz")
		require.NotNil(t, he)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("期限切れトークンは401", func(t *testing.T) {
		token := signTestToken(t, user.RoleUser, -time.Minute)

		he, _ := invokeWithAuth(t, mw, "Bearer "+token)

		require.NotNil(t, he)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("別の鍵で署名されたトークンは401", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
		require.NoError(t, err)

		he, _ := invokeWithAuth(t, mw, "Bearer "+token)

		require.NotNil(t, he)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	authMw := JWTAuth(testSecret)

	run := func(t *testing.T, role user.Role) *echo.HTTPError {
		token := signTestToken(t, role, time.Hour)
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/events", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
		err := authMw(RequireAdmin()(next))(c)
		if err == nil {
			return nil
		}
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		return he
	}

	t.Run("管理者は通過できる", func(t *testing.T) {
		assert.Nil(t, run(t, user.RoleAdmin))
	})

	t.Run("一般ユーザーは403", func(t *testing.T) {
		he := run(t, user.RoleUser)
		require.NotNil(t, he)
		assert.Equal(t, http.StatusForbidden, he.Code)
	})

	t.Run("未認証は401", func(t *testing.T) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/events", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
		err := RequireAdmin()(next)(c)

		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})
}
