package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/api/middleware"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/application"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/user"
)

// AuthHandler は認証関連のハンドラー
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを作成する
func NewAuthHandler(s AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: s}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email" example:"taro@example.com"`
	FullName string `json:"full_name" validate:"required,min=1,max=100" example:"山田太郎"`
	Password string `json:"password" validate:"required,min=8,max=72" example:"password123"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"taro@example.com"`
	Password string `json:"password" validate:"required" example:"password123"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID: u.ID, Email: u.Email, FullName: u.FullName,
		Role: string(u.Role), CreatedAt: u.CreatedAt,
	}
}

// Register godoc
// @Summary ユーザー登録
// @Description 一般ユーザーを登録します
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "登録情報"
// @Success 201 {object} UserResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "メールアドレス重複"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	u, err := h.service.Register(c.Request().Context(), application.RegisterInput{
		Email: req.Email, FullName: req.FullName, Password: req.Password,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toUserResponse(u))
}

// Login godoc
// @Summary ログイン
// @Description 認証情報を検証しアクセストークンを発行します
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "認証情報"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	token, u, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, LoginResponse{Token: token, User: toUserResponse(u)})
}

// Me godoc
// @Summary ログインユーザーを取得
// @Description 認証トークンに対応するユーザー情報を返します
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} map[string]string
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "認証トークンが必要です")
	}
	u, err := h.service.GetUser(c.Request().Context(), claims.Subject)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(u))
}
