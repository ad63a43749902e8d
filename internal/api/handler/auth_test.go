package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/application"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/user"
)

// MockAuthService はAuthServiceInterfaceのモック
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, input application.RegisterInput) (*user.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*user.User), args.Error(2)
}

func (m *MockAuthService) GetUser(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func testUser() *user.User {
	return &user.User{
		ID: "user-1", Email: "taro@example.com", FullName: "山田太郎", Role: user.RoleUser,
	}
}

func TestAuthHandler_Register(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にユーザー登録できる", func(t *testing.T) {
		mockService := new(MockAuthService)
		mockService.On("Register", mock.Anything, application.RegisterInput{
			Email: "taro@example.com", FullName: "山田太郎", Password: "password123",
		}).Return(testUser(), nil)

		h := NewAuthHandler(mockService)

		reqBody := `{"email": "taro@example.com", "full_name": "山田太郎", "password": "password123"}`
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := h.Register(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp UserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "user-1", resp.ID)
		assert.Equal(t, "USER", resp.Role)
		assert.NotContains(t, rec.Body.String(), "password", "パスワードはレスポンスに含めない")
	})

	t.Run("メールアドレス重複は409", func(t *testing.T) {
		mockService := new(MockAuthService)
		mockService.On("Register", mock.Anything, mock.AnythingOfType("application.RegisterInput")).
			Return(nil, user.ErrEmailAlreadyExists)

		h := NewAuthHandler(mockService)

		reqBody := `{"email": "taro@example.com", "full_name": "山田太郎", "password": "password123"}`
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := h.Register(c)

		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusConflict, he.Code)
	})

	t.Run("短すぎるパスワードはバリデーションエラー", func(t *testing.T) {
		h := NewAuthHandler(new(MockAuthService))

		reqBody := `{"email": "taro@example.com", "full_name": "山田太郎", "password": "short"}`
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := h.Register(c)

		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusBadRequest, he.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常にログインできる", func(t *testing.T) {
		mockService := new(MockAuthService)
		mockService.On("Login", mock.Anything, "taro@example.com", "password123").
			Return("signed-token", testUser(), nil)

		h := NewAuthHandler(mockService)

		reqBody := `{"email": "taro@example.com", "password": "password123"}`
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := h.Login(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "signed-token", resp.Token)
		assert.Equal(t, "user-1", resp.User.ID)
	})

	t.Run("認証情報の不一致は401", func(t *testing.T) {
		mockService := new(MockAuthService)
		mockService.On("Login", mock.Anything, "taro@example.com", "wrong").
			Return("", nil, user.ErrInvalidCredentials)

		h := NewAuthHandler(mockService)

		reqBody := `{"email": "taro@example.com", "password": "wrong"}`
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := h.Login(c)

		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})
}

func TestAuthHandler_Me(t *testing.T) {
	e := NewTestEcho()

	t.Run("ログインユーザーの情報を取得できる", func(t *testing.T) {
		mockService := new(MockAuthService)
		mockService.On("GetUser", mock.Anything, "user-1").Return(testUser(), nil)

		h := NewAuthHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		setAuthClaims(c, "user-1", user.RoleUser)

		err := h.Me(c)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("未認証なら401", func(t *testing.T) {
		h := NewAuthHandler(new(MockAuthService))

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := h.Me(c)

		var he *echo.HTTPError
		require.ErrorAs(t, err, &he)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})
}
