package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/application"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/user"
)

// claimsKey はEchoコンテキストに認証クレームを格納するキー
const claimsKey = "auth_claims"

// JWTAuth はBearerトークンを検証するミドルウェア
// 検証に成功したクレームはコンテキストに格納される
func JWTAuth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "認証トークンが必要です")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorizationヘッダーの形式が不正です")
			}

			claims, err := application.ParseToken(parts[1], secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "無効な認証トークンです")
			}

			SetClaims(c, claims)
			return next(c)
		}
	}
}

// RequireAdmin は管理者権限を要求するミドルウェア
// JWTAuth の後段でのみ使用できる
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "認証トークンが必要です")
			}
			if claims.Role != user.RoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "管理者権限が必要です")
			}
			return next(c)
		}
	}
}

// SetClaims はコンテキストに認証クレームを格納する
func SetClaims(c echo.Context, claims *application.Claims) {
	c.Set(claimsKey, claims)
}

// ClaimsFrom はコンテキストから認証クレームを取得する
func ClaimsFrom(c echo.Context) (*application.Claims, bool) {
	claims, ok := c.Get(claimsKey).(*application.Claims)
	return claims, ok
}
